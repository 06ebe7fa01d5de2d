package main

import (
	"database/sql"
	"log"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Server wires the classify → route → notify → store pipeline behind a
// JSON API. Each submission runs the chain to completion before the
// response is written.
type Server struct {
	cfg        Config
	classifier *Classifier
	router     *Router
	notifier   *Notifier
	store      *Store
	auditDB    *sql.DB // nil when auditing is disabled
}

func NewServer(cfg Config, classifier *Classifier, router *Router, notifier *Notifier, store *Store, auditDB *sql.DB) *Server {
	return &Server{
		cfg:        cfg,
		classifier: classifier,
		router:     router,
		notifier:   notifier,
		store:      store,
		auditDB:    auditDB,
	}
}

func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{AppName: "feedbackdesk"})

	app.Post("/api/feedback", s.handleSubmit)
	app.Get("/api/feedbacks", s.handleList)
	app.Post("/api/feedback/:id/status", s.handleUpdateStatus)
	app.Get("/api/export", s.handleExport)
	app.Get("/api/stats", s.handleStats)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	return app
}

type submitRequest struct {
	ParentName  string `json:"parent_name"`
	StudentName string `json:"student_name"`
	StudentID   string `json:"student_id"`
	Title       string `json:"title"`
	Contact     string `json:"contact"`
	Text        string `json:"text"`
}

func (s *Server) handleSubmit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text is required"})
	}

	cls, fallback := s.classifier.Analyze(c.UserContext(), req.Text)
	dept := s.router.Route(string(cls.Category), req.Text)

	fb := Feedback{
		ParentName:      req.ParentName,
		StudentName:     req.StudentName,
		StudentID:       req.StudentID,
		Title:           req.Title,
		Contact:         req.Contact,
		Text:            req.Text,
		Category:        cls.Category,
		Sentiment:       cls.Sentiment,
		Confidence:      cls.Confidence,
		Department:      dept.Name,
		DepartmentEmail: dept.Email,
	}
	fb.Notified = s.notifier.Notify(fb)

	saved := s.store.Add(fb)
	s.recordAudit(saved, fallback)

	return c.JSON(saved)
}

func (s *Server) handleList(c *fiber.Ctx) error {
	category := c.Query("category")
	sentiment := c.Query("sentiment")
	department := c.Query("department")

	filtered := make([]Feedback, 0)
	for _, fb := range s.store.List() {
		if category != "" && !strings.EqualFold(string(fb.Category), category) {
			continue
		}
		if sentiment != "" && !strings.EqualFold(string(fb.Sentiment), sentiment) {
			continue
		}
		if department != "" && !strings.EqualFold(fb.Department, department) {
			continue
		}
		filtered = append(filtered, fb)
	}
	return c.JSON(filtered)
}

type statusUpdateRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
	Actor  string `json:"actor"`
}

func (s *Server) handleUpdateStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid feedback id"})
	}

	var req statusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Status) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status is required"})
	}

	updated, ok := s.store.UpdateStatus(id, req.Status, req.Note, req.Actor)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "feedback not found"})
	}
	return c.JSON(updated)
}

func (s *Server) handleExport(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename=feedbacks.csv`)
	return c.SendString(s.store.ExportCSV())
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	items := s.store.List()

	byStatus := make(map[string]int)
	bySentiment := map[Sentiment]int{
		SentimentPositive: 0,
		SentimentNeutral:  0,
		SentimentNegative: 0,
	}
	for _, fb := range items {
		byStatus[fb.Status]++
		if _, ok := bySentiment[fb.Sentiment]; ok {
			bySentiment[fb.Sentiment]++
		}
	}

	recent := make([]Feedback, len(items))
	copy(recent, items)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Submitted > recent[j].Submitted
	})
	if len(recent) > 5 {
		recent = recent[:5]
	}

	return c.JSON(fiber.Map{
		"total":        len(items),
		"by_status":    byStatus,
		"by_sentiment": bySentiment,
		"recent":       recent,
	})
}

// recordAudit writes one classification audit row. Audit failures never
// affect the submission.
func (s *Server) recordAudit(fb Feedback, fallback bool) {
	if s.auditDB == nil {
		return
	}
	provider := s.classifier.Provider()
	model := s.classifier.Model()
	if fallback {
		provider = "local"
		model = ""
	}
	err := InsertClassificationAudit(s.auditDB, ClassificationAudit{
		FeedbackID: fb.ID,
		Provider:   provider,
		Model:      model,
		Category:   fb.Category,
		Sentiment:  fb.Sentiment,
		Confidence: fb.Confidence,
		Fallback:   fallback,
	})
	if err != nil {
		log.Printf("audit insert failed feedback_id=%d err=%v", fb.ID, err)
	}
}
