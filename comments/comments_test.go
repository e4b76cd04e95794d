package comments

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mikevdev/bootcamp-yelpcamp/middleware"
	"github.com/mikevdev/bootcamp-yelpcamp/models"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.AutoMigrate(&models.User{}, &models.Campground{}, &models.Comment{}, &models.Review{})
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))
	router.Use(middleware.CurrentUser(db))

	router.GET("/session/:id", func(c *gin.Context) {
		session := sessions.Default(c)
		id, _ := strconv.Atoi(c.Param("id"))
		session.Set("user_id", id)
		session.Save()
		c.Status(http.StatusOK)
	})

	NewCommentModule(db).RegisterRoutes(router)
	return router
}

func loginAs(t *testing.T, router *gin.Engine, userID int) []*http.Cookie {
	t.Helper()
	req, _ := http.NewRequest("GET", "/session/"+strconv.Itoa(userID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	return w.Result().Cookies()
}

func createTestUser(db *gorm.DB, username string, admin bool) *models.User {
	user := &models.User{
		Username:     username,
		PasswordHash: "hashedpassword",
		Email:        username + "@example.com",
		IsAdmin:      admin,
	}
	db.Create(user)
	return user
}

func createTestCampground(db *gorm.DB, author *models.User) *models.Campground {
	campground := &models.Campground{
		Name:           "Pine Ridge",
		Location:       "Yosemite Valley, CA",
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
	}
	db.Create(campground)
	return campground
}

func createTestComment(db *gorm.DB, campground *models.Campground, author *models.User, text string) *models.Comment {
	comment := &models.Comment{
		CampgroundID:   campground.ID,
		Text:           text,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
	}
	db.Create(comment)
	return comment
}

func doForm(router *gin.Engine, method, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreate_RequiresLogin(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	alice := createTestUser(db, "alice", false)
	campground := createTestCampground(db, alice)

	path := "/campgrounds/" + strconv.Itoa(int(campground.ID)) + "/comments"
	w := doForm(router, "POST", path, url.Values{"text": {"hi"}}, nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	var count int64
	db.Model(&models.Comment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreate_PersistsWithAuthorSnapshot(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	alice := createTestUser(db, "alice", false)
	bob := createTestUser(db, "bob", false)
	campground := createTestCampground(db, alice)

	cookies := loginAs(t, router, bob.ID)
	id := strconv.Itoa(int(campground.ID))
	w := doForm(router, "POST", "/campgrounds/"+id+"/comments", url.Values{"text": {"lovely spot"}}, cookies)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/campgrounds/"+id, w.Header().Get("Location"))

	var comment models.Comment
	assert.NoError(t, db.First(&comment).Error)
	assert.Equal(t, campground.ID, comment.CampgroundID)
	assert.Equal(t, "lovely spot", comment.Text)
	assert.Equal(t, bob.ID, comment.AuthorID)
	assert.Equal(t, "bob", comment.AuthorUsername)

	// the campground row itself is not rewritten by a new comment
	var reloaded models.Campground
	assert.NoError(t, db.First(&reloaded, campground.ID).Error)
	assert.True(t, reloaded.UpdatedAt.Equal(campground.UpdatedAt))
}

func TestCreate_MissingCampground(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	alice := createTestUser(db, "alice", false)
	cookies := loginAs(t, router, alice.ID)

	w := doForm(router, "POST", "/campgrounds/999/comments", url.Values{"text": {"hi"}}, cookies)

	assert.Equal(t, http.StatusFound, w.Code)

	var count int64
	db.Model(&models.Comment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUpdate_NonOwnerRejected(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	alice := createTestUser(db, "alice", false)
	bob := createTestUser(db, "bob", false)
	campground := createTestCampground(db, alice)
	comment := createTestComment(db, campground, alice, "original")

	cookies := loginAs(t, router, bob.ID)
	path := "/campgrounds/" + strconv.Itoa(int(campground.ID)) + "/comments/" + strconv.Itoa(int(comment.ID))
	w := doForm(router, "PUT", path, url.Values{"text": {"tampered"}}, cookies)

	assert.Equal(t, http.StatusFound, w.Code)

	var unchanged models.Comment
	db.First(&unchanged, comment.ID)
	assert.Equal(t, "original", unchanged.Text)
}

func TestUpdate_OwnerEditsText(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	alice := createTestUser(db, "alice", false)
	campground := createTestCampground(db, alice)
	comment := createTestComment(db, campground, alice, "original")

	cookies := loginAs(t, router, alice.ID)
	id := strconv.Itoa(int(campground.ID))
	path := "/campgrounds/" + id + "/comments/" + strconv.Itoa(int(comment.ID))
	w := doForm(router, "PUT", path, url.Values{"text": {"edited"}}, cookies)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/campgrounds/"+id, w.Header().Get("Location"))

	var updated models.Comment
	db.First(&updated, comment.ID)
	assert.Equal(t, "edited", updated.Text)
}

func TestDelete_AdminOverride(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	alice := createTestUser(db, "alice", false)
	admin := createTestUser(db, "root", true)
	campground := createTestCampground(db, alice)
	comment := createTestComment(db, campground, alice, "spam")

	cookies := loginAs(t, router, admin.ID)
	path := "/campgrounds/" + strconv.Itoa(int(campground.ID)) + "/comments/" + strconv.Itoa(int(comment.ID))
	w := doForm(router, "DELETE", path, url.Values{}, cookies)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.ErrorIs(t, db.First(&models.Comment{}, comment.ID).Error, gorm.ErrRecordNotFound)
}

func TestDelete_OwnerRemovesComment(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	alice := createTestUser(db, "alice", false)
	campground := createTestCampground(db, alice)
	comment := createTestComment(db, campground, alice, "bye")

	cookies := loginAs(t, router, alice.ID)
	id := strconv.Itoa(int(campground.ID))
	path := "/campgrounds/" + id + "/comments/" + strconv.Itoa(int(comment.ID))
	w := doForm(router, "DELETE", path, url.Values{}, cookies)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/campgrounds/"+id, w.Header().Get("Location"))
	assert.ErrorIs(t, db.First(&models.Comment{}, comment.ID).Error, gorm.ErrRecordNotFound)
}
