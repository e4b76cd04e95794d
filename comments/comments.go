package comments

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mikevdev/bootcamp-yelpcamp/cache"
	"github.com/mikevdev/bootcamp-yelpcamp/flash"
	"github.com/mikevdev/bootcamp-yelpcamp/middleware"
	"github.com/mikevdev/bootcamp-yelpcamp/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type CommentModule struct {
	db *gorm.DB
}

func NewCommentModule(db *gorm.DB) *CommentModule {
	return &CommentModule{db: db}
}

func (m *CommentModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/campgrounds/:id/comments/new", middleware.RequireLogin, m.newForm)
	router.POST("/campgrounds/:id/comments", middleware.RequireLogin, m.create)
	router.GET("/campgrounds/:id/comments/:comment_id/edit", middleware.CheckCommentOwnership(m.db), m.editForm)
	router.PUT("/campgrounds/:id/comments/:comment_id", middleware.CheckCommentOwnership(m.db), m.update)
	router.DELETE("/campgrounds/:id/comments/:comment_id", middleware.CheckCommentOwnership(m.db), m.delete)
}

func (m *CommentModule) findCampground(c *gin.Context) (*models.Campground, bool) {
	var campground models.Campground
	if err := m.db.First(&campground, "id = ?", c.Param("id")).Error; err != nil {
		flash.Error(c, "No campground found")
		middleware.RedirectBack(c)
		return nil, false
	}
	return &campground, true
}

func (m *CommentModule) newForm(c *gin.Context) {
	campground, ok := m.findCampground(c)
	if !ok {
		return
	}

	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "comments_new.html", gin.H{
		"campground":  campground,
		"currentUser": middleware.UserFrom(c),
		"errors":      errs,
		"successes":   successes,
	})
}

func (m *CommentModule) create(c *gin.Context) {
	user := middleware.UserFrom(c)

	campground, ok := m.findCampground(c)
	if !ok {
		return
	}

	comment := models.Comment{
		CampgroundID:   campground.ID,
		Text:           c.PostForm("text"),
		AuthorID:       user.ID,
		AuthorUsername: user.Username,
	}

	if err := m.db.Create(&comment).Error; err != nil {
		logger.Error().Err(err).Uint("campground_id", campground.ID).Msg("failed to create comment")
		flash.Error(c, "Something went wrong")
		middleware.RedirectBack(c)
		return
	}

	cache.ClearCache(c.Param("id"))

	flash.Success(c, "Successfully added comment")
	c.Redirect(http.StatusFound, "/campgrounds/"+c.Param("id"))
}

func (m *CommentModule) editForm(c *gin.Context) {
	campground, ok := m.findCampground(c)
	if !ok {
		return
	}

	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "comments_edit.html", gin.H{
		"campground":  campground,
		"comment":     commentFrom(c),
		"currentUser": middleware.UserFrom(c),
		"errors":      errs,
		"successes":   successes,
	})
}

func (m *CommentModule) update(c *gin.Context) {
	comment := commentFrom(c)

	comment.Text = c.PostForm("text")
	if err := m.db.Save(comment).Error; err != nil {
		logger.Error().Err(err).Uint("comment_id", comment.ID).Msg("failed to update comment")
		middleware.RedirectBack(c)
		return
	}

	cache.ClearCache(c.Param("id"))

	c.Redirect(http.StatusFound, "/campgrounds/"+c.Param("id"))
}

func (m *CommentModule) delete(c *gin.Context) {
	comment := commentFrom(c)

	if err := m.db.Delete(comment).Error; err != nil {
		logger.Error().Err(err).Uint("comment_id", comment.ID).Msg("failed to delete comment")
		middleware.RedirectBack(c)
		return
	}

	cache.ClearCache(c.Param("id"))

	flash.Success(c, "Comment deleted")
	c.Redirect(http.StatusFound, "/campgrounds/"+c.Param("id"))
}

func commentFrom(c *gin.Context) *models.Comment {
	v, _ := c.Get(middleware.CtxComment)
	return v.(*models.Comment)
}
