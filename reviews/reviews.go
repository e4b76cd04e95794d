package reviews

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mikevdev/bootcamp-yelpcamp/cache"
	"github.com/mikevdev/bootcamp-yelpcamp/flash"
	"github.com/mikevdev/bootcamp-yelpcamp/middleware"
	"github.com/mikevdev/bootcamp-yelpcamp/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type ReviewModule struct {
	db *gorm.DB
}

func NewReviewModule(db *gorm.DB) *ReviewModule {
	return &ReviewModule{db: db}
}

func (m *ReviewModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/campgrounds/:id/reviews", m.index)
	router.GET("/campgrounds/:id/reviews/new", middleware.CheckReviewExistence(m.db), m.newForm)
	router.POST("/campgrounds/:id/reviews", middleware.CheckReviewExistence(m.db), m.create)
	router.GET("/campgrounds/:id/reviews/:review_id/edit", middleware.CheckReviewOwnership(m.db), m.editForm)
	router.PUT("/campgrounds/:id/reviews/:review_id", middleware.CheckReviewOwnership(m.db), m.update)
	router.DELETE("/campgrounds/:id/reviews/:review_id", middleware.CheckReviewOwnership(m.db), m.delete)
}

func (m *ReviewModule) index(c *gin.Context) {
	var campground models.Campground
	err := m.db.
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("reviews.created_at DESC")
		}).
		First(&campground, "id = ?", c.Param("id")).Error
	if err != nil {
		flash.Error(c, "Campground not found")
		c.Redirect(http.StatusFound, "/campgrounds")
		return
	}

	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "reviews_index.html", gin.H{
		"campground":  &campground,
		"currentUser": middleware.UserFrom(c),
		"errors":      errs,
		"successes":   successes,
	})
}

func (m *ReviewModule) newForm(c *gin.Context) {
	campground := campgroundFrom(c)

	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "reviews_new.html", gin.H{
		"campground":  campground,
		"currentUser": middleware.UserFrom(c),
		"errors":      errs,
		"successes":   successes,
	})
}

func parseRating(c *gin.Context) (int, bool) {
	rating, err := strconv.Atoi(c.PostForm("rating"))
	if err != nil || rating < 1 || rating > 5 {
		flash.Error(c, "Rating must be between 1 and 5")
		middleware.RedirectBack(c)
		return 0, false
	}
	return rating, true
}

func (m *ReviewModule) create(c *gin.Context) {
	user := middleware.UserFrom(c)
	campground := campgroundFrom(c)

	rating, ok := parseRating(c)
	if !ok {
		return
	}

	review := models.Review{
		CampgroundID:   campground.ID,
		Body:           c.PostForm("body"),
		Rating:         rating,
		AuthorID:       user.ID,
		AuthorUsername: user.Username,
	}

	if err := m.db.Create(&review).Error; err != nil {
		logger.Error().Err(err).Uint("campground_id", campground.ID).Msg("failed to create review")
		flash.Error(c, "Something went wrong")
		middleware.RedirectBack(c)
		return
	}

	m.recalcRating(campground.ID)
	cache.ClearCache(c.Param("id"))

	flash.Success(c, "Your review has been successfully added.")
	c.Redirect(http.StatusFound, "/campgrounds/"+c.Param("id"))
}

func (m *ReviewModule) editForm(c *gin.Context) {
	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "reviews_edit.html", gin.H{
		"campgroundID": c.Param("id"),
		"review":       reviewFrom(c),
		"currentUser":  middleware.UserFrom(c),
		"errors":       errs,
		"successes":    successes,
	})
}

func (m *ReviewModule) update(c *gin.Context) {
	review := reviewFrom(c)

	rating, ok := parseRating(c)
	if !ok {
		return
	}

	review.Body = c.PostForm("body")
	review.Rating = rating
	if err := m.db.Save(review).Error; err != nil {
		logger.Error().Err(err).Uint("review_id", review.ID).Msg("failed to update review")
		middleware.RedirectBack(c)
		return
	}

	m.recalcRating(review.CampgroundID)
	cache.ClearCache(c.Param("id"))

	flash.Success(c, "Your review was successfully edited.")
	c.Redirect(http.StatusFound, "/campgrounds/"+c.Param("id"))
}

func (m *ReviewModule) delete(c *gin.Context) {
	review := reviewFrom(c)

	if err := m.db.Delete(review).Error; err != nil {
		logger.Error().Err(err).Uint("review_id", review.ID).Msg("failed to delete review")
		middleware.RedirectBack(c)
		return
	}

	m.recalcRating(review.CampgroundID)
	cache.ClearCache(c.Param("id"))

	flash.Success(c, "Your review was deleted successfully.")
	c.Redirect(http.StatusFound, "/campgrounds/"+c.Param("id"))
}

// recalcRating keeps the campground's denormalized average in step with its
// reviews. Zero when the last review is gone.
func (m *ReviewModule) recalcRating(campgroundID uint) {
	var avg float64
	err := m.db.Model(&models.Review{}).
		Where("campground_id = ?", campgroundID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error
	if err != nil {
		logger.Error().Err(err).Uint("campground_id", campgroundID).Msg("failed to average ratings")
		return
	}

	err = m.db.Model(&models.Campground{}).
		Where("id = ?", campgroundID).
		Update("rating", avg).Error
	if err != nil {
		logger.Error().Err(err).Uint("campground_id", campgroundID).Msg("failed to store rating")
	}
}

func campgroundFrom(c *gin.Context) *models.Campground {
	v, _ := c.Get(middleware.CtxCampground)
	return v.(*models.Campground)
}

func reviewFrom(c *gin.Context) *models.Review {
	v, _ := c.Get(middleware.CtxReview)
	return v.(*models.Review)
}
