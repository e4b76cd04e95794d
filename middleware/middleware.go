package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikevdev/bootcamp-yelpcamp/flash"
	"github.com/mikevdev/bootcamp-yelpcamp/models"
)

// Context keys populated by the middlewares below.
const (
	CtxUser       = "currentUser"
	CtxCampground = "campground"
	CtxComment    = "comment"
	CtxReview     = "review"
)

// Authorizable is implemented by every entity that can be mutated through
// an ownership check.
type Authorizable interface {
	OwnerID() int
	AdminOverride() bool
}

// CurrentUser resolves the session user, if any, and attaches it to the
// request context. A session pointing at a deleted user is cleared.
func CurrentUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")
		if userID == nil {
			c.Next()
			return
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			session.Clear()
			session.Save()
			c.Next()
			return
		}

		c.Set(CtxUser, &user)
		c.Next()
	}
}

// UserFrom returns the authenticated user attached by CurrentUser, or nil.
func UserFrom(c *gin.Context) *models.User {
	if v, exists := c.Get(CtxUser); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// RequireLogin aborts with a flash and a redirect to the login form when no
// user is signed in.
func RequireLogin(c *gin.Context) {
	if UserFrom(c) == nil {
		flash.Error(c, "You need to be logged in to do that!")
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Next()
}

// RedirectBack sends the caller to the referring page, falling back to the
// campground listing.
func RedirectBack(c *gin.Context) {
	back := c.Request.Referer()
	if back == "" {
		back = "/campgrounds"
	}
	c.Redirect(http.StatusFound, back)
}

func allowed(user *models.User, entity Authorizable) bool {
	if entity.OwnerID() == user.ID {
		return true
	}
	return user.IsAdmin && entity.AdminOverride()
}

// CheckCampgroundOwnership loads the campground from :id and aborts unless
// the caller authored it or is an admin.
func CheckCampgroundOwnership(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFrom(c)
		if user == nil {
			flash.Error(c, "You need to be logged in to do that!")
			RedirectBack(c)
			c.Abort()
			return
		}

		var campground models.Campground
		if err := db.First(&campground, "id = ?", c.Param("id")).Error; err != nil {
			flash.Error(c, "Campground not found")
			RedirectBack(c)
			c.Abort()
			return
		}

		if !allowed(user, campground) {
			flash.Error(c, "You don't have permission to do that!")
			RedirectBack(c)
			c.Abort()
			return
		}

		c.Set(CtxCampground, &campground)
		c.Next()
	}
}

// CheckCommentOwnership loads the comment from :comment_id and aborts unless
// the caller authored it or is an admin.
func CheckCommentOwnership(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFrom(c)
		if user == nil {
			flash.Error(c, "You need to be logged in to do that!")
			RedirectBack(c)
			c.Abort()
			return
		}

		var comment models.Comment
		if err := db.First(&comment, "id = ?", c.Param("comment_id")).Error; err != nil {
			flash.Error(c, "Comment not found")
			RedirectBack(c)
			c.Abort()
			return
		}

		if !allowed(user, comment) {
			flash.Error(c, "You don't have permission to do that")
			RedirectBack(c)
			c.Abort()
			return
		}

		c.Set(CtxComment, &comment)
		c.Next()
	}
}

// CheckReviewOwnership loads the review from :review_id. Only the exact
// author may pass; there is no admin override for reviews.
func CheckReviewOwnership(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFrom(c)
		if user == nil {
			flash.Error(c, "You need to be logged in to do that")
			RedirectBack(c)
			c.Abort()
			return
		}

		var review models.Review
		if err := db.First(&review, "id = ?", c.Param("review_id")).Error; err != nil {
			RedirectBack(c)
			c.Abort()
			return
		}

		if !allowed(user, review) {
			flash.Error(c, "You don't have permission to do that")
			RedirectBack(c)
			c.Abort()
			return
		}

		c.Set(CtxReview, &review)
		c.Next()
	}
}

// CheckReviewExistence aborts when the caller already reviewed the
// campground from :id. One review per user per campground.
func CheckReviewExistence(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFrom(c)
		if user == nil {
			flash.Error(c, "You need to login first")
			RedirectBack(c)
			c.Abort()
			return
		}

		var campground models.Campground
		if err := db.First(&campground, "id = ?", c.Param("id")).Error; err != nil {
			flash.Error(c, "Campground not found.")
			RedirectBack(c)
			c.Abort()
			return
		}

		var count int64
		db.Model(&models.Review{}).
			Where("campground_id = ? AND author_id = ?", campground.ID, user.ID).
			Count(&count)
		if count > 0 {
			flash.Error(c, "You already wrote a review.")
			c.Redirect(http.StatusFound, "/campgrounds/"+c.Param("id"))
			c.Abort()
			return
		}

		c.Set(CtxCampground, &campground)
		c.Next()
	}
}
