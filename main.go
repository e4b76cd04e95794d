package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mikevdev/bootcamp-yelpcamp/auth"
	"github.com/mikevdev/bootcamp-yelpcamp/cache"
	"github.com/mikevdev/bootcamp-yelpcamp/campgrounds"
	"github.com/mikevdev/bootcamp-yelpcamp/comments"
	"github.com/mikevdev/bootcamp-yelpcamp/common"
	"github.com/mikevdev/bootcamp-yelpcamp/database"
	"github.com/mikevdev/bootcamp-yelpcamp/email"
	"github.com/mikevdev/bootcamp-yelpcamp/flash"
	"github.com/mikevdev/bootcamp-yelpcamp/geocoder"
	"github.com/mikevdev/bootcamp-yelpcamp/middleware"
	"github.com/mikevdev/bootcamp-yelpcamp/reviews"
	"github.com/mikevdev/bootcamp-yelpcamp/storage"
)

func main() {
	godotenv.Load()

	db := common.ConnectDb()
	if db == nil {
		log.Fatal("Failed to connect to database")
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	uploader, err := storage.NewS3Uploader(context.Background())
	if err != nil {
		log.Fatal("Failed to configure image storage:", err)
	}

	gc := geocoder.NewClient()
	mailer := email.NewEmailService()

	router := gin.Default()

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET environment variable not set")
	}

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
	})

	router.Use(sessions.Sessions("yelpcamp-session", store))
	router.Use(middleware.CurrentUser(db))
	router.Use(cache.Middleware(5 * time.Minute))

	router.SetFuncMap(map[string]interface{}{
		"now": func() time.Time {
			return time.Now()
		},
		"domain": func() string {
			d := os.Getenv("DOMAIN")
			if d == "" {
				return "http://localhost:8080"
			}
			return d
		},
	})

	router.LoadHTMLGlob("*/views/*.html")

	router.Static("/public", "./public")

	authModule := auth.NewAuthModule(db, mailer)
	authModule.RegisterRoutes(router)

	campgroundModule := campgrounds.NewCampgroundModule(db, gc, uploader)
	campgroundModule.RegisterRoutes(router)

	commentModule := comments.NewCommentModule(db)
	commentModule.RegisterRoutes(router)

	reviewModule := reviews.NewReviewModule(db)
	reviewModule.RegisterRoutes(router)

	router.GET("/", func(c *gin.Context) {
		errs, successes := flash.Pop(c)
		c.HTML(200, "home.html", gin.H{
			"title":       "YelpCamp - Find Your Next Campground",
			"currentUser": middleware.UserFrom(c),
			"errors":      errs,
			"successes":   successes,
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on port %s...", port)
	if err := http.ListenAndServe(":"+port, common.MethodOverride(router)); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
