// Package stub is a development stand-in for the NeuraMind backend. It
// implements the same HTTP contract the client gateways speak, backed by an
// in-memory index with naive token-overlap scoring. OCR and real embeddings
// are out of scope: uploaded files are treated as already-extracted text.
package stub

import (
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
)

type Server struct {
	app    *fiber.App
	store  *Store
	apiKey string
}

func NewServer(apiKey string) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // matches the client's upload limit
	})
	app.Use(otelfiber.Middleware())

	s := &Server{
		app:    app,
		store:  NewStore(),
		apiKey: apiKey,
	}
	s.registerRoutes()
	return s
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(port string) error {
	return s.app.Listen(":" + port)
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	v1 := s.app.Group("/v1", s.requireAPIKey)
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	v1.Post("/upload-document", s.uploadDocument)
	v1.Post("/embed-upsert", s.embedUpsert)
	v1.Post("/query", s.query)
	v1.Post("/answer", s.answer)
	v1.Get("/documents/:userId", s.listDocuments)
	v1.Delete("/documents/:userId/:itemId", s.deleteDocument)
}

func (s *Server) requireAPIKey(c *fiber.Ctx) error {
	if c.Get("X-API-Key") != s.apiKey {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "invalid API key"})
	}
	return c.Next()
}

func (s *Server) uploadDocument(c *fiber.Ctx) error {
	title := strings.TrimSpace(c.FormValue("title"))
	userID := c.FormValue("user_id")
	if title == "" || userID == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": "title and user_id are required"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": "file part is required"})
	}
	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "cannot read upload"})
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "cannot read upload"})
	}
	text := string(raw)

	fileType := "image"
	if strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		fileType = "pdf"
	}

	itemID, ids := s.store.AddDocument(userID, title, fileType, text)
	return c.JSON(fiber.Map{
		"item_id":        itemID,
		"chunks_count":   len(ids),
		"text_length":    len(text),
		"ocr_confidence": stubOCRConfidence,
	})
}

func (s *Server) embedUpsert(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
		ItemID string `json:"item_id"`
		Title  string `json:"title"`
		Text   string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": "invalid body"})
	}
	ids := s.store.Upsert(req.UserID, req.ItemID, req.Title, req.Text)
	return c.JSON(fiber.Map{"ok": true, "ids": ids})
}

func (s *Server) query(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
		Query  string `json:"query"`
		TopK   int    `json:"top_k"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": "invalid body"})
	}
	matches := s.store.Query(req.UserID, req.Query, req.TopK)
	if matches == nil {
		matches = []Match{}
	}
	return c.JSON(fiber.Map{"matches": matches})
}

func (s *Server) answer(c *fiber.Ctx) error {
	var req struct {
		Query    string `json:"query"`
		Contexts []struct {
			Text  string  `json:"text"`
			Title string  `json:"title"`
			Score float64 `json:"score"`
		} `json:"contexts"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": "invalid body"})
	}

	// Deterministic synthesis keeps the stub useful as a test fixture.
	if len(req.Contexts) == 0 {
		return c.JSON(fiber.Map{"answer": "I don't have any information about that in your documents."})
	}
	top := req.Contexts[0]
	return c.JSON(fiber.Map{
		"answer": fmt.Sprintf("According to %s: %s", top.Title, preview(top.Text)),
	})
}

func (s *Server) listDocuments(c *fiber.Ctx) error {
	docs := s.store.Documents(c.Params("userId"))
	if docs == nil {
		docs = []Document{}
	}
	return c.JSON(fiber.Map{"documents": docs})
}

func (s *Server) deleteDocument(c *fiber.Ctx) error {
	if !s.store.Delete(c.Params("userId"), c.Params("itemId")) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "document not found"})
	}
	return c.JSON(fiber.Map{"ok": true})
}
