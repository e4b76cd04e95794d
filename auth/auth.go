package auth

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	emailpkg "github.com/mikevdev/bootcamp-yelpcamp/email"
	"github.com/mikevdev/bootcamp-yelpcamp/flash"
	"github.com/mikevdev/bootcamp-yelpcamp/middleware"
	"github.com/mikevdev/bootcamp-yelpcamp/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type AuthModule struct {
	db     *gorm.DB
	mailer emailpkg.Mailer
}

func NewAuthModule(db *gorm.DB, mailer emailpkg.Mailer) *AuthModule {
	return &AuthModule{
		db:     db,
		mailer: mailer,
	}
}

func (a *AuthModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/register", a.registerPage)
	router.POST("/register", a.registerPost)
	router.GET("/login", a.loginPage)
	router.POST("/login", a.loginPost)
	router.GET("/logout", a.logout)
	router.GET("/forgot", a.forgotPage)
	router.POST("/forgot", a.forgotPost)
	router.GET("/reset/:token", a.resetPage)
	router.POST("/reset/:token", a.resetPost)
	router.GET("/users/:id", a.profile)
}

func (a *AuthModule) registerPage(c *gin.Context) {
	if middleware.UserFrom(c) != nil {
		c.Redirect(http.StatusFound, "/campgrounds")
		return
	}

	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "auth_register.html", gin.H{
		"errors":    errs,
		"successes": successes,
	})
}

func (a *AuthModule) registerPost(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if username == "" || password == "" {
		flash.Error(c, "Username and password are required")
		c.Redirect(http.StatusFound, "/register")
		return
	}

	var existing models.User
	if err := a.db.Where("username = ?", username).First(&existing).Error; err == nil {
		flash.Error(c, "A user with the given username is already registered")
		c.Redirect(http.StatusFound, "/register")
		return
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		logger.Error().Err(err).Msg("failed to hash password")
		flash.Error(c, "Something went wrong")
		c.Redirect(http.StatusFound, "/register")
		return
	}

	user := models.User{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        c.PostForm("email"),
		Avatar:       c.PostForm("avatar"),
		FirstName:    c.PostForm("firstName"),
		LastName:     c.PostForm("lastName"),
	}

	if err := a.db.Create(&user).Error; err != nil {
		logger.Error().Err(err).Str("username", username).Msg("failed to create user")
		flash.Error(c, "Something went wrong")
		c.Redirect(http.StatusFound, "/register")
		return
	}

	logIn(c, user.ID)
	flash.Success(c, "Welcome to YelpCamp "+user.Username)
	c.Redirect(http.StatusFound, "/campgrounds")
}

func (a *AuthModule) loginPage(c *gin.Context) {
	if middleware.UserFrom(c) != nil {
		c.Redirect(http.StatusFound, "/campgrounds")
		return
	}

	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "auth_login.html", gin.H{
		"errors":    errs,
		"successes": successes,
	})
}

func (a *AuthModule) loginPost(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	var user models.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		flash.Error(c, "Invalid username or password")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	if !checkPasswordHash(password, user.PasswordHash) {
		flash.Error(c, "Invalid username or password")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	// a pending reset token becomes dead weight once the owner proves the
	// old password still works
	if user.ResetPasswordToken != "" {
		user.ResetPasswordToken = ""
		user.ResetPasswordExpires = nil
		if err := a.db.Save(&user).Error; err != nil {
			logger.Error().Err(err).Int("user_id", user.ID).Msg("failed to clear reset token on login")
		}
	}

	logIn(c, user.ID)
	c.Redirect(http.StatusFound, "/campgrounds")
}

func (a *AuthModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	flash.Success(c, "Logged You Out!")
	c.Redirect(http.StatusFound, "/campgrounds")
}

func (a *AuthModule) forgotPage(c *gin.Context) {
	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "auth_forgot.html", gin.H{
		"errors":    errs,
		"successes": successes,
	})
}

// forgotPost runs the reset request as one straight sequence: token, record
// update, mail dispatch, each step failing out early.
func (a *AuthModule) forgotPost(c *gin.Context) {
	token, err := generateResetToken()
	if err != nil {
		logger.Error().Err(err).Msg("failed to generate reset token")
		flash.Error(c, "Something went wrong!")
		c.Redirect(http.StatusFound, "/forgot")
		return
	}

	address := c.PostForm("email")
	var user models.User
	if err := a.db.Where("email = ?", address).First(&user).Error; err != nil {
		flash.Error(c, "No account with that email address exists!")
		c.Redirect(http.StatusFound, "/forgot")
		return
	}

	expires := time.Now().Add(time.Hour)
	user.ResetPasswordToken = token
	user.ResetPasswordExpires = &expires
	if err := a.db.Save(&user).Error; err != nil {
		logger.Error().Err(err).Int("user_id", user.ID).Msg("failed to store reset token")
		flash.Error(c, "Something went wrong!")
		c.Redirect(http.StatusFound, "/forgot")
		return
	}

	if err := a.mailer.SendPasswordResetEmail(user.Email, token); err != nil {
		logger.Error().Err(err).Str("email", user.Email).Msg("failed to send reset email")
		flash.Error(c, "Something went wrong!")
		c.Redirect(http.StatusFound, "/forgot")
		return
	}

	flash.Success(c, "An email has been sent to "+user.Email+" with further instructions.")
	c.Redirect(http.StatusFound, "/forgot")
}

func (a *AuthModule) findUserByResetToken(token string) (*models.User, error) {
	var user models.User
	err := a.db.Where("reset_password_token = ? AND reset_password_expires > ?", token, time.Now()).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *AuthModule) resetPage(c *gin.Context) {
	token := c.Param("token")

	if _, err := a.findUserByResetToken(token); err != nil {
		flash.Error(c, "Password reset link is invalid or has expired.")
		c.Redirect(http.StatusFound, "/forgot")
		return
	}

	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "auth_reset.html", gin.H{
		"token":     token,
		"errors":    errs,
		"successes": successes,
	})
}

func (a *AuthModule) resetPost(c *gin.Context) {
	token := c.Param("token")

	user, err := a.findUserByResetToken(token)
	if err != nil {
		flash.Error(c, "Password reset link is invalid or has expired")
		c.Redirect(http.StatusFound, "/forgot")
		return
	}

	password := c.PostForm("password")
	confirm := c.PostForm("confirm")
	if password == "" || password != confirm {
		flash.Error(c, "Passwords do not match.")
		c.Redirect(http.StatusFound, "/reset/"+token)
		return
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		logger.Error().Err(err).Msg("failed to hash password")
		flash.Error(c, "Something went wrong!")
		c.Redirect(http.StatusFound, "/forgot")
		return
	}

	user.PasswordHash = passwordHash
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = nil
	if err := a.db.Save(user).Error; err != nil {
		logger.Error().Err(err).Int("user_id", user.ID).Msg("failed to save new password")
		flash.Error(c, "Something went wrong!")
		c.Redirect(http.StatusFound, "/forgot")
		return
	}

	logIn(c, user.ID)

	if err := a.mailer.SendPasswordChangedEmail(user.Email); err != nil {
		// the password is already changed; the confirmation mail is best effort
		logger.Error().Err(err).Str("email", user.Email).Msg("failed to send confirmation email")
	}

	flash.Success(c, "Success! Your password has been changed.")
	c.Redirect(http.StatusFound, "/campgrounds")
}

func (a *AuthModule) profile(c *gin.Context) {
	var user models.User
	if err := a.db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		flash.Error(c, "Something went wrong")
		c.Redirect(http.StatusFound, "/")
		return
	}

	var campgrounds []models.Campground
	if err := a.db.Where("author_id = ?", user.ID).Order("created_at DESC").Find(&campgrounds).Error; err != nil {
		flash.Error(c, "Something went wrong")
		c.Redirect(http.StatusFound, "/")
		return
	}

	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "users_show.html", gin.H{
		"user":        &user,
		"campgrounds": campgrounds,
		"currentUser": middleware.UserFrom(c),
		"errors":      errs,
		"successes":   successes,
	})
}

func logIn(c *gin.Context, userID int) {
	session := sessions.Default(c)
	session.Set("user_id", userID)
	session.Save()
}

func generateResetToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
