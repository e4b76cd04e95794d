package campgrounds

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"github.com/mikevdev/bootcamp-yelpcamp/cache"
	"github.com/mikevdev/bootcamp-yelpcamp/flash"
	"github.com/mikevdev/bootcamp-yelpcamp/geocoder"
	"github.com/mikevdev/bootcamp-yelpcamp/middleware"
	"github.com/mikevdev/bootcamp-yelpcamp/models"
	"github.com/mikevdev/bootcamp-yelpcamp/storage"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// PerPage is the fixed listing page size.
const PerPage = 6

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(),
	),
)

type CampgroundModule struct {
	db       *gorm.DB
	geocoder geocoder.Geocoder
	uploader storage.Uploader
}

func NewCampgroundModule(db *gorm.DB, gc geocoder.Geocoder, uploader storage.Uploader) *CampgroundModule {
	return &CampgroundModule{
		db:       db,
		geocoder: gc,
		uploader: uploader,
	}
}

func (m *CampgroundModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/campgrounds", m.index)
	router.GET("/campgrounds/new", middleware.RequireLogin, m.newForm)
	router.POST("/campgrounds", middleware.RequireLogin, m.create)
	router.GET("/campgrounds/:id", m.show)
	router.GET("/campgrounds/:id/edit", middleware.CheckCampgroundOwnership(m.db), m.editForm)
	router.PUT("/campgrounds/:id", middleware.CheckCampgroundOwnership(m.db), m.update)
	router.DELETE("/campgrounds/:id", middleware.CheckCampgroundOwnership(m.db), m.delete)
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func (m *CampgroundModule) listQuery(search string) *gorm.DB {
	query := m.db.Model(&models.Campground{})
	if search != "" {
		query = query.Where(`name LIKE ? ESCAPE '\'`, "%"+escapeLike(search)+"%")
	}
	return query
}

// PageOfCampgrounds returns one listing page plus the total match count.
// SQLite LIKE is case-insensitive, which matches the search contract.
func (m *CampgroundModule) PageOfCampgrounds(search string, page int) ([]models.Campground, int64, error) {
	if page < 1 {
		page = 1
	}

	var count int64
	if err := m.listQuery(search).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var campgrounds []models.Campground
	err := m.listQuery(search).
		Order("created_at DESC").
		Limit(PerPage).
		Offset(PerPage * (page - 1)).
		Find(&campgrounds).Error
	if err != nil {
		return nil, 0, err
	}

	return campgrounds, count, nil
}

func (m *CampgroundModule) index(c *gin.Context) {
	search := c.Query("search")
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}

	campgrounds, count, err := m.PageOfCampgrounds(search, page)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load campgrounds")
		middleware.RedirectBack(c)
		return
	}

	// an empty search result is a distinct signal from an empty page of an
	// unfiltered listing
	noMatch := ""
	if search != "" && count == 0 {
		noMatch = "No campgrounds match that query, please try again"
	}

	pages := (count + PerPage - 1) / PerPage

	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "campgrounds_index.html", gin.H{
		"campgrounds": campgrounds,
		"current":     page,
		"pages":       pages,
		"search":      search,
		"noMatch":     noMatch,
		"currentUser": middleware.UserFrom(c),
		"errors":      errs,
		"successes":   successes,
	})
}

func (m *CampgroundModule) newForm(c *gin.Context) {
	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "campgrounds_new.html", gin.H{
		"currentUser": middleware.UserFrom(c),
		"errors":      errs,
		"successes":   successes,
	})
}

func (m *CampgroundModule) create(c *gin.Context) {
	user := middleware.UserFrom(c)

	file, err := c.FormFile("image")
	if err != nil {
		flash.Error(c, "An image is required")
		middleware.RedirectBack(c)
		return
	}

	if err := storage.ValidateExtension(file.Filename); err != nil {
		flash.Error(c, "Only image files are allowed")
		middleware.RedirectBack(c)
		return
	}

	location, err := m.geocoder.Geocode(c.PostForm("location"))
	if err != nil {
		if !errors.Is(err, geocoder.ErrNoMatch) {
			logger.Error().Err(err).Msg("geocoder failed")
		}
		flash.Error(c, "Invalid address")
		middleware.RedirectBack(c)
		return
	}

	imageURL, err := m.uploader.Upload(c.Request.Context(), file)
	if err != nil {
		logger.Error().Err(err).Msg("image upload failed")
		flash.Error(c, "Failed to upload image")
		middleware.RedirectBack(c)
		return
	}

	campground := models.Campground{
		Name:           c.PostForm("name"),
		Image:          imageURL,
		Price:          c.PostForm("price"),
		Description:    c.PostForm("description"),
		Location:       location.FormattedAddress,
		Lat:            location.Lat,
		Lng:            location.Lng,
		AuthorID:       user.ID,
		AuthorUsername: user.Username,
	}

	if err := m.db.Create(&campground).Error; err != nil {
		logger.Error().Err(err).Msg("failed to create campground")
		flash.Error(c, "Something went wrong")
		middleware.RedirectBack(c)
		return
	}

	c.Redirect(http.StatusFound, "/campgrounds/"+strconv.Itoa(int(campground.ID)))
}

func (m *CampgroundModule) show(c *gin.Context) {
	var campground models.Campground
	err := m.db.
		Preload("Comments").
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
	c.HTML(http.StatusOK, "campgrounds_show.html", gin.H{
		"campground":      &campground,
		"descriptionHTML": template.HTML(renderMarkdown(campground.Description)),
		"currentUser":     middleware.UserFrom(c),
		"errors":          errs,
		"successes":       successes,
	})
}

func (m *CampgroundModule) editForm(c *gin.Context) {
	campground := campgroundFrom(c)

	errs, successes := flash.Pop(c)
	c.HTML(http.StatusOK, "campgrounds_edit.html", gin.H{
		"campground":  campground,
		"currentUser": middleware.UserFrom(c),
		"errors":      errs,
		"successes":   successes,
	})
}

func (m *CampgroundModule) update(c *gin.Context) {
	campground := campgroundFrom(c)

	// the location is re-resolved on every update, changed or not
	location, err := m.geocoder.Geocode(c.PostForm("location"))
	if err != nil {
		if !errors.Is(err, geocoder.ErrNoMatch) {
			logger.Error().Err(err).Msg("geocoder failed")
		}
		flash.Error(c, "Invalid address")
		middleware.RedirectBack(c)
		return
	}

	if file, err := c.FormFile("image"); err == nil {
		if err := storage.ValidateExtension(file.Filename); err != nil {
			flash.Error(c, "Only image files are allowed")
			middleware.RedirectBack(c)
			return
		}
		imageURL, err := m.uploader.Upload(c.Request.Context(), file)
		if err != nil {
			logger.Error().Err(err).Msg("image upload failed")
			flash.Error(c, "Failed to upload image")
			middleware.RedirectBack(c)
			return
		}
		campground.Image = imageURL
	}

	campground.Name = c.PostForm("name")
	campground.Price = c.PostForm("price")
	campground.Description = c.PostForm("description")
	campground.Location = location.FormattedAddress
	campground.Lat = location.Lat
	campground.Lng = location.Lng

	if err := m.db.Save(campground).Error; err != nil {
		logger.Error().Err(err).Uint("campground_id", campground.ID).Msg("failed to update campground")
		flash.Error(c, "Something went wrong")
		c.Redirect(http.StatusFound, "/campgrounds")
		return
	}

	cache.ClearCache(c.Param("id"))

	flash.Success(c, "Successfully Updated!")
	c.Redirect(http.StatusFound, "/campgrounds/"+c.Param("id"))
}

// delete cascades over the campground's comments and reviews before removing
// the campground itself. A failing comment cascade aborts the whole
// operation; nothing already removed is rolled back.
func (m *CampgroundModule) delete(c *gin.Context) {
	campground := campgroundFrom(c)

	if err := m.db.Where("campground_id = ?", campground.ID).Delete(&models.Comment{}).Error; err != nil {
		logger.Error().Err(err).Uint("campground_id", campground.ID).Msg("failed to delete comments")
		c.Redirect(http.StatusFound, "/campgrounds")
		return
	}

	if err := m.db.Where("campground_id = ?", campground.ID).Delete(&models.Review{}).Error; err != nil {
		logger.Error().Err(err).Uint("campground_id", campground.ID).Msg("failed to delete reviews")
		c.Redirect(http.StatusFound, "/campgrounds")
		return
	}

	if err := m.db.Delete(campground).Error; err != nil {
		logger.Error().Err(err).Uint("campground_id", campground.ID).Msg("failed to delete campground")
		c.Redirect(http.StatusFound, "/campgrounds")
		return
	}

	cache.ClearCache(c.Param("id"))

	flash.Success(c, "Campground deleted successfully!")
	c.Redirect(http.StatusFound, "/campgrounds")
}

func campgroundFrom(c *gin.Context) *models.Campground {
	v, _ := c.Get(middleware.CtxCampground)
	return v.(*models.Campground)
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return buf.String()
}
