// Package handler serves the JSON API.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/studyplanner/internal/i18n"
	"github.com/pavelanni/studyplanner/internal/llm"
	"github.com/pavelanni/studyplanner/internal/llm/prompts"
	"github.com/pavelanni/studyplanner/internal/model"
	"github.com/pavelanni/studyplanner/internal/planner"
	"github.com/pavelanni/studyplanner/internal/quiz"
	"github.com/pavelanni/studyplanner/internal/session"
	"github.com/pavelanni/studyplanner/internal/store"
)

const sessionCookie = "planner_session"

// lastExamKey is the metadata key remembering the most recently used exam.
const lastExamKey = "last_exam"

// Quiz size bounds applied to client-supplied question counts.
const (
	minQuizSize = 3
	maxQuizSize = 10
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	llm      llm.Generator
	sessions *session.Manager
	config   model.Config
	now      func() time.Time
}

// New creates a new Handler.
func New(s *store.Store, g llm.Generator, sm *session.Manager, cfg model.Config) *Handler {
	return &Handler{
		store:    s,
		llm:      g,
		sessions: sm,
		config:   cfg,
		now:      time.Now,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/exams", h.handleExams)
		r.Post("/syllabus", h.handleSyllabus)
		r.Post("/plan", h.handlePlan)
		r.Post("/quiz", h.handleQuiz)
		r.Post("/quiz/submit", h.handleQuizSubmit)
		r.Post("/quiz/reset", h.handleQuizReset)
		r.Get("/history/plans", h.handleHistoryPlans)
		r.Get("/history/attempts", h.handleHistoryAttempts)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "llm": "unknown"}
	if p, ok := h.llm.(llm.Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			slog.Warn("LLM health check failed", "error", err)
			status["llm"] = "unreachable"
		} else {
			status["llm"] = "ok"
		}
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *Handler) handleExams(w http.ResponseWriter, r *http.Request) {
	lastExam, err := h.store.GetMetadata(lastExamKey)
	if err != nil {
		slog.Warn("read last exam", "error", err)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"exams":     model.Exams,
		"last_exam": lastExam,
	})
}

// rememberExam records the most recently used exam so clients can preselect
// it on the next visit. Failures are logged, never surfaced.
func (h *Handler) rememberExam(exam string) {
	if err := h.store.SetMetadata(lastExamKey, exam); err != nil {
		slog.Warn("remember exam", "exam", exam, "error", err)
	}
}

// validateExam resolves an exam name, writing a 400 response on failure.
// The returned bool reports whether the request may proceed.
func (h *Handler) validateExam(w http.ResponseWriter, r *http.Request, name string) (model.Exam, bool) {
	if strings.TrimSpace(name) == "" {
		respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrExamRequired"))
		return model.Exam{}, false
	}
	exam, ok := model.ExamByName(name)
	if !ok {
		respondError(w, http.StatusBadRequest, i18n.Td(r.Context(), "ErrExamUnknown", map[string]any{"Exam": name}))
		return model.Exam{}, false
	}
	return exam, true
}

func (h *Handler) handleSyllabus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Exam string `json:"exam"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	exam, ok := h.validateExam(w, r, req.Exam)
	if !ok {
		return
	}

	rec, err := h.generateSyllabus(w, r, exam.Name)
	if rec == nil {
		if err != nil {
			respondError(w, http.StatusBadGateway, i18n.T(r.Context(), "ErrGateway"))
		}
		return
	}
	h.rememberExam(exam.Name)
	respondJSON(w, http.StatusOK, rec)
}

// generateSyllabus asks the model for a syllabus and stores the result.
// A response that fails to parse is still stored and returned raw-only.
// Returns (nil, err) when the gateway itself failed; the caller decides
// how to report that.
func (h *Handler) generateSyllabus(w http.ResponseWriter, r *http.Request, exam string) (*model.SyllabusRecord, error) {
	prompt, err := prompts.BuildSyllabus(exam)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return nil, nil
	}

	raw, err := h.llm.Generate(r.Context(), prompt)
	if err != nil {
		slog.Error("syllabus generation failed", "exam", exam, "error", err)
		return nil, err
	}

	syllabus, parseErr := llm.ParseSyllabus(raw)
	if parseErr != nil {
		slog.Warn("syllabus response did not parse, keeping raw text", "exam", exam, "error", parseErr)
		syllabus = nil
	}

	id, err := h.store.SaveSyllabus(exam, syllabus, raw)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return nil, nil
	}
	return &model.SyllabusRecord{
		ID:        id,
		Exam:      exam,
		Syllabus:  syllabus,
		Raw:       raw,
		CreatedAt: h.now(),
	}, nil
}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Exam    string `json:"exam"`
		EndDate string `json:"end_date"`
		Mode    string `json:"mode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	exam, ok := h.validateExam(w, r, req.Exam)
	if !ok {
		return
	}
	if strings.TrimSpace(req.EndDate) == "" {
		respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrDateRequired"))
		return
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrDateInvalid"))
		return
	}

	// Reuse the latest stored syllabus; generate one when there is none.
	rec, err := h.store.LatestSyllabus(exam.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		var gwErr error
		rec, gwErr = h.generateSyllabus(w, r, exam.Name)
		if rec == nil {
			if gwErr != nil {
				respondError(w, http.StatusBadGateway, i18n.T(r.Context(), "ErrGateway"))
			}
			return
		}
	}

	if rec.Syllabus == nil {
		// No structured syllabus to partition; fall back to a one-shot
		// markdown plan from the model.
		h.planFromModelMarkdown(w, r, exam.Name, req.EndDate)
		return
	}

	if req.Mode == "llm" {
		h.planFromModelJSON(w, r, exam.Name, req.EndDate, rec.Syllabus)
		return
	}

	days := planner.Partition(rec.Syllabus, endDate, h.now())
	h.savePlanAndRespond(w, r, model.PlanRecord{
		Exam:    exam.Name,
		EndDate: req.EndDate,
		Source:  model.SourceDeterministic,
		Days:    days,
	})
}

// planFromModelJSON asks the model to build the day-entry array itself.
// An unparseable response degrades to a raw-text plan instead of failing.
func (h *Handler) planFromModelJSON(w http.ResponseWriter, r *http.Request, exam, endDate string, s model.Syllabus) {
	syllabusJSON, err := json.Marshal(s)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	prompt, err := prompts.BuildTimetable(string(syllabusJSON), endDate)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	raw, err := h.llm.Generate(r.Context(), prompt)
	if err != nil {
		slog.Error("timetable generation failed", "exam", exam, "error", err)
		respondError(w, http.StatusBadGateway, i18n.T(r.Context(), "ErrGateway"))
		return
	}

	days, parseErr := llm.ParsePlan(raw)
	if parseErr != nil {
		slog.Warn("timetable response did not parse, keeping raw text", "exam", exam, "error", parseErr)
		h.savePlanAndRespond(w, r, model.PlanRecord{
			Exam: exam, EndDate: endDate, Source: model.SourceLLM, Raw: raw,
		})
		return
	}
	h.savePlanAndRespond(w, r, model.PlanRecord{
		Exam: exam, EndDate: endDate, Source: model.SourceLLM, Days: days, Raw: raw,
	})
}

// planFromModelMarkdown is the last-resort plan path used when no structured
// syllabus exists: one prompt, markdown out, stored and served as raw text.
func (h *Handler) planFromModelMarkdown(w http.ResponseWriter, r *http.Request, exam, endDate string) {
	prompt, err := prompts.BuildStudyPlan(exam, endDate)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	raw, err := h.llm.Generate(r.Context(), prompt)
	if err != nil {
		slog.Error("study plan generation failed", "exam", exam, "error", err)
		respondError(w, http.StatusBadGateway, i18n.T(r.Context(), "ErrGateway"))
		return
	}
	h.savePlanAndRespond(w, r, model.PlanRecord{
		Exam: exam, EndDate: endDate, Source: model.SourceLLM, Raw: raw,
	})
}

func (h *Handler) savePlanAndRespond(w http.ResponseWriter, r *http.Request, rec model.PlanRecord) {
	id, err := h.store.SavePlan(rec)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rec.ID = id
	rec.CreatedAt = h.now()
	h.rememberExam(rec.Exam)
	respondJSON(w, http.StatusOK, rec)
}

// questionView is a quiz question with the answer withheld.
type questionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Topic    string   `json:"topic,omitempty"`
}

func (h *Handler) handleQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Exam     string   `json:"exam"`
		Subjects []string `json:"subjects"`
		Count    int      `json:"count"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	exam, ok := h.validateExam(w, r, req.Exam)
	if !ok {
		return
	}
	if len(req.Subjects) == 0 {
		respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrSubjectsRequired"))
		return
	}

	count := req.Count
	if count == 0 {
		count = h.config.QuizSize
	}
	if count < minQuizSize {
		count = minQuizSize
	}
	if count > maxQuizSize {
		count = maxQuizSize
	}

	label := exam.Name + " - " + strings.Join(req.Subjects, ", ")
	prompt, err := prompts.BuildQuiz(label, count)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	raw, err := h.llm.Generate(r.Context(), prompt)
	if err != nil {
		slog.Error("quiz generation failed", "exam", label, "error", err)
		respondError(w, http.StatusBadGateway, i18n.T(r.Context(), "ErrGateway"))
		return
	}
	q, err := llm.ParseQuiz(raw)
	if err != nil {
		// Nothing to score against, so the raw text is all we can offer.
		slog.Warn("quiz response did not parse, returning raw text", "exam", label, "error", err)
		respondJSON(w, http.StatusOK, map[string]any{
			"exam": exam.Name,
			"raw":  raw,
		})
		return
	}

	quizID, err := h.store.SaveQuiz(exam.Name, *q)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	st := h.sessionState(w, r)
	if st == nil {
		respondError(w, http.StatusInternalServerError, "create session")
		return
	}
	st.ResetQuiz()
	st.Exam = exam.Name
	st.QuizID = quizID
	st.Quiz = q
	h.rememberExam(exam.Name)

	views := make([]questionView, 0, len(q.Questions))
	for _, question := range q.Questions {
		views = append(views, questionView{
			Question: question.Question,
			Options:  question.Options,
			Topic:    question.Topic,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"quiz_id":   quizID,
		"exam":      exam.Name,
		"questions": views,
	})
}

func (h *Handler) handleQuizSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	st := h.existingSession(r)
	if st == nil || st.Quiz == nil {
		respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrQuizNotReady"))
		return
	}
	if st.Submitted {
		respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrAlreadySubmitted"))
		return
	}

	answers := make(map[int]string, len(req.Answers))
	for key, value := range req.Answers {
		idx, err := strconv.Atoi(key)
		if err != nil {
			respondError(w, http.StatusBadRequest, "answer keys must be question indices")
			return
		}
		answers[idx] = value
	}
	st.Answers = answers

	if missing := quiz.Unanswered(*st.Quiz, answers); len(missing) > 0 {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":   i18n.T(r.Context(), "ErrUnanswered"),
			"missing": missing,
		})
		return
	}

	result := quiz.Score(*st.Quiz, answers)
	if _, err := h.store.SaveAttempt(model.QuizAttempt{
		QuizID:       st.QuizID,
		Exam:         st.Exam,
		Score:        result.Score,
		Total:        result.Total,
		Percentage:   result.Percentage,
		Grade:        result.Grade,
		MissedTopics: result.MissedTopics,
	}); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	st.Submitted = true

	tips := h.remediationTips(r, st.Exam, result.MissedTopics)
	respondJSON(w, http.StatusOK, map[string]any{
		"score":         result.Score,
		"total":         result.Total,
		"percentage":    result.Percentage,
		"grade":         result.Grade,
		"missed_topics": result.MissedTopics,
		"tips":          tips,
	})
}

// remediationTips asks the model for study advice on missed topics. The call
// is best-effort: on failure the response carries a plain topic list instead.
func (h *Handler) remediationTips(r *http.Request, exam string, missed []string) string {
	if len(missed) == 0 {
		return ""
	}
	prompt, err := prompts.BuildTips(exam, missed)
	if err == nil {
		tips, genErr := h.llm.Generate(r.Context(), prompt)
		if genErr == nil {
			return tips
		}
		slog.Warn("tips generation failed", "exam", exam, "error", genErr)
	}
	return "Review these topics: " + strings.Join(missed, ", ")
}

func (h *Handler) handleQuizReset(w http.ResponseWriter, r *http.Request) {
	if st := h.existingSession(r); st != nil {
		st.ResetQuiz()
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleHistoryPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.store.ListPlans()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plans == nil {
		plans = []model.PlanRecord{}
	}
	respondJSON(w, http.StatusOK, plans)
}

func (h *Handler) handleHistoryAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.store.ListAttempts()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if attempts == nil {
		attempts = []model.QuizAttempt{}
	}
	respondJSON(w, http.StatusOK, attempts)
}

// sessionState returns the request's session, creating one (and setting the
// cookie) when there is none.
func (h *Handler) sessionState(w http.ResponseWriter, r *http.Request) *session.State {
	if st := h.existingSession(r); st != nil {
		return st
	}
	token, st, err := h.sessions.Create()
	if err != nil {
		slog.Error("create session", "error", err)
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return st
}

// existingSession returns the session named by the request cookie, or nil.
func (h *Handler) existingSession(r *http.Request) *session.State {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	return h.sessions.Get(c.Value)
}
