package http

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aliexpress-dz/pricebot/internal/repository"
	"github.com/aliexpress-dz/pricebot/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionCookie = "admin_session"

// loginThrottle caps failed login attempts per username to slow down
// password guessing.
type loginThrottle struct {
	mu       sync.Mutex
	failures map[string]int
	until    map[string]time.Time
	now      func() time.Time
}

const (
	maxLoginFailures = 5
	loginLockout     = 10 * time.Minute
)

func newLoginThrottle() *loginThrottle {
	return &loginThrottle{
		failures: make(map[string]int),
		until:    make(map[string]time.Time),
		now:      time.Now,
	}
}

func (t *loginThrottle) blocked(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	until, ok := t.until[username]
	if !ok {
		return false
	}
	if t.now().After(until) {
		delete(t.until, username)
		delete(t.failures, username)
		return false
	}
	return true
}

func (t *loginThrottle) recordFailure(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[username]++
	if t.failures[username] >= maxLoginFailures {
		t.until[username] = t.now().Add(loginLockout)
	}
}

func (t *loginThrottle) reset(username string) {
	t.mu.Lock()
	delete(t.failures, username)
	delete(t.until, username)
	t.mu.Unlock()
}

// Handler holds the admin panel HTTP handlers
type Handler struct {
	admins      repository.AdminRepository
	users       repository.UserRepository
	broadcaster service.Broadcaster
	sessions    *SessionStore
	throttle    *loginThrottle
	templates   *template.Template
	logger      *zap.Logger
}

// NewHandler creates a new admin panel handler
func NewHandler(admins repository.AdminRepository, users repository.UserRepository, broadcaster service.Broadcaster, sessions *SessionStore, logger *zap.Logger) *Handler {
	return &Handler{
		admins:      admins,
		users:       users,
		broadcaster: broadcaster,
		sessions:    sessions,
		throttle:    newLoginThrottle(),
		templates:   template.Must(template.ParseFS(templateFS, "templates/*.html")),
		logger:      logger,
	}
}

// Status handles GET / with a plain liveness line.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("pricebot is running\n"))
}

type loginPage struct {
	Error string
}

// LoginForm handles GET /admin/login
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentSession(r); ok {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, "login.html", loginPage{})
}

// Login handles POST /admin/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	if username == "" || password == "" {
		h.render(w, "login.html", loginPage{Error: "Username and password are required"})
		return
	}

	if h.throttle.blocked(username) {
		h.logger.Warn("login attempt while locked out", zap.String("username", username))
		h.render(w, "login.html", loginPage{Error: "Too many failed attempts, try again later"})
		return
	}

	admin, err := h.admins.FindAdmin(r.Context(), username)
	if err != nil {
		h.logger.Error("failed to look up admin", zap.String("username", username), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Compare against a constant hash when the account is unknown so both
	// paths take bcrypt time.
	hash := unknownAccountHash
	if admin != nil {
		hash = admin.PasswordHash
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil || admin == nil {
		h.throttle.recordFailure(username)
		h.logger.Warn("failed admin login", zap.String("username", username))
		h.render(w, "login.html", loginPage{Error: "Invalid username or password"})
		return
	}

	h.throttle.reset(username)
	session := h.sessions.Create(admin.Username)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})

	h.logger.Info("admin logged in", zap.String("username", admin.Username))
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

// bcrypt hash of a random throwaway value, used to equalize timing on
// unknown usernames.
const unknownAccountHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type dashboardPage struct {
	Username    string
	CSRFToken   string
	Subscribers int
	Notice      string
	Error       string
}

// Dashboard handles GET /admin/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session, _ := h.currentSession(r)

	subscribers, err := h.users.ListSubscribed(r.Context())
	if err != nil {
		h.logger.Error("failed to count subscribers", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, "dashboard.html", dashboardPage{
		Username:    session.Username,
		CSRFToken:   session.CSRFToken,
		Subscribers: len(subscribers),
		Notice:      r.URL.Query().Get("notice"),
	})
}

// Broadcast handles POST /admin/broadcast
func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	session, _ := h.currentSession(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	if r.PostFormValue("csrf_token") != session.CSRFToken {
		http.Error(w, "Invalid CSRF token", http.StatusForbidden)
		return
	}

	text := strings.TrimSpace(r.PostFormValue("message"))
	if text == "" {
		h.renderDashboardError(w, r, session, "Message text is required")
		return
	}

	report, err := h.broadcaster.Broadcast(r.Context(), text)
	if err != nil {
		h.logger.Error("broadcast failed", zap.Error(err))
		h.renderDashboardError(w, r, session, "Broadcast failed: "+err.Error())
		return
	}

	h.logger.Info("broadcast finished",
		zap.String("admin", session.Username),
		zap.Int("total", report.Total),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed))

	notice := fmt.Sprintf("Broadcast sent to %d of %d subscribers", report.Sent, report.Total)
	http.Redirect(w, r, "/admin/dashboard?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

// Logout handles POST /admin/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		h.sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (h *Handler) renderDashboardError(w http.ResponseWriter, r *http.Request, session Session, message string) {
	subscribers, err := h.users.ListSubscribed(r.Context())
	count := 0
	if err == nil {
		count = len(subscribers)
	}
	h.render(w, "dashboard.html", dashboardPage{
		Username:    session.Username,
		CSRFToken:   session.CSRFToken,
		Subscribers: count,
		Error:       message,
	})
}

func (h *Handler) currentSession(r *http.Request) (Session, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return Session{}, false
	}
	return h.sessions.Get(cookie.Value)
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("failed to render template", zap.String("template", name), zap.Error(err))
	}
}
