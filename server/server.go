package server

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	log "github.com/sirupsen/logrus"

	"newsyacht/db"
	"newsyacht/models"
)

//go:embed templates/*.html
var templates embed.FS

var views = template.Must(template.New("").Funcs(template.FuncMap{
	"labelTextColor": LabelTextColor,
}).ParseFS(templates, "templates/*.html"))

type ServerConfig struct {

	// The cache file to serve from. The store is opened around each
	// request's unit of work and closed again.
	Database string

	// Day window of the ranked home view
	HomeDays int
}

type itemsPage struct {
	Heading string
	Items   []models.DbItem
}

// Server returns a fiber.App serving the ranked home, archive and per-feed
// views plus the read/vote mutation endpoints. It only ever consumes the
// store's read and point-mutation operations; ingestion errors never
// surface here.
func Server(config *ServerConfig) *fiber.App {

	app := fiber.New()

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"latency": time.Since(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	app.Get("/", func(c *fiber.Ctx) error {
		filter := db.ItemFilter{MaxAgeDays: config.HomeDays, Read: db.UnreadOnly}
		if c.Query("all") == "1" {
			filter = db.ItemFilter{}
		}

		database, err := db.Open(config.Database)
		if err != nil {
			return serverError(c, err)
		}
		defer database.Close()

		items, err := database.GetItems(filter)
		if err != nil {
			return serverError(c, err)
		}

		return render(c, itemsPage{Heading: "News", Items: items})
	})

	app.Get("/archive", func(c *fiber.Ctx) error {
		database, err := db.Open(config.Database)
		if err != nil {
			return serverError(c, err)
		}
		defer database.Close()

		items, err := database.GetItems(db.ItemFilter{Read: db.ReadOnly})
		if err != nil {
			return serverError(c, err)
		}

		return render(c, itemsPage{Heading: "Archive", Items: items})
	})

	app.Get("/feed/:id", func(c *fiber.Ctx) error {
		feedID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.ErrBadRequest
		}

		database, err := db.Open(config.Database)
		if err != nil {
			return serverError(c, err)
		}
		defer database.Close()

		title, err := database.GetFeedTitle(int64(feedID))
		if err != nil {
			return fiber.ErrNotFound
		}

		items, err := database.GetItemsBySubscription(int64(feedID))
		if err != nil {
			return serverError(c, err)
		}

		if title == "" {
			title = "Feed"
		}
		return render(c, itemsPage{Heading: title, Items: items})
	})

	// Mark the item read and follow its link.
	app.Get("/read/:id", func(c *fiber.Ctx) error {
		itemID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.ErrBadRequest
		}

		database, err := db.Open(config.Database)
		if err != nil {
			return serverError(c, err)
		}
		defer database.Close()

		link, err := database.GetLink(int64(itemID))
		if err != nil {
			return fiber.ErrNotFound
		}

		if err := database.MarkRead(int64(itemID)); err != nil {
			return serverError(c, err)
		}

		if link == "" {
			return c.Redirect("/")
		}
		return c.Redirect(link)
	})

	// Mark the item read without redirecting anywhere.
	app.Post("/mark/:id", func(c *fiber.Ctx) error {
		itemID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.ErrBadRequest
		}

		database, err := db.Open(config.Database)
		if err != nil {
			return serverError(c, err)
		}
		defer database.Close()

		if err := database.MarkRead(int64(itemID)); err != nil {
			return serverError(c, err)
		}

		return c.SendStatus(fiber.StatusNoContent)
	})

	// Train the model on the item's text. One request is one vote event.
	app.Post("/vote/:id/:direction", func(c *fiber.Ctx) error {
		itemID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.ErrBadRequest
		}

		vote, err := models.ParseVote(c.Params("direction"))
		if err != nil {
			return fiber.ErrBadRequest
		}

		database, err := db.Open(config.Database)
		if err != nil {
			return serverError(c, err)
		}
		defer database.Close()

		item, err := database.GetItem(int64(itemID))
		if err != nil {
			return fiber.ErrNotFound
		}

		model, err := database.LoadModel()
		if err != nil {
			return serverError(c, err)
		}

		deltas := model.Update(item.Title+" "+item.Content, vote)
		if err := database.SaveModel(model, deltas, vote); err != nil {
			return serverError(c, err)
		}

		// A voted item has been seen.
		if err := database.MarkRead(int64(itemID)); err != nil {
			return serverError(c, err)
		}

		log.WithFields(log.Fields{
			"item": itemID,
			"vote": vote.String(),
		}).Info("Recorded vote")

		return c.Redirect("/")
	})

	return app
}

func render(c *fiber.Ctx, page itemsPage) error {
	var buf bytes.Buffer
	if err := views.ExecuteTemplate(&buf, "items.html", page); err != nil {
		return serverError(c, err)
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func serverError(c *fiber.Ctx, err error) error {
	log.WithError(err).Error("Request failed")
	return fiber.ErrInternalServerError
}
