package handler

import (
	"time"

	"pto-tracker/internal/config"
	"pto-tracker/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth          *service.AuthService
	Users         *service.UserService
	Entries       *service.EntryService
	Notifications *service.NotificationService
	Ledger        *service.LedgerService
	Calendar      *service.CalendarService
	Accrual       *service.AccrualService
}

type Handler struct {
	auth          *service.AuthService
	users         *service.UserService
	entries       *service.EntryService
	notifications *service.NotificationService
	ledger        *service.LedgerService
	calendar      *service.CalendarService
	accrual       *service.AccrualService
	config        *config.Config
	now           func() time.Time
	logger        *logrus.Logger
}

func NewHandler(svc Services, cfg *config.Config) *Handler {
	return &Handler{
		auth:          svc.Auth,
		users:         svc.Users,
		entries:       svc.Entries,
		notifications: svc.Notifications,
		ledger:        svc.Ledger,
		calendar:      svc.Calendar,
		accrual:       svc.Accrual,
		config:        cfg,
		now:           time.Now,
		logger:        logrus.StandardLogger(),
	}
}

func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.logger))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/users/login", h.login)
	router.GET("/pto/calculate_pto.json", h.calculatePTO)

	authed := router.Group("/")
	authed.Use(JWTAuth(h.auth, h.users))
	{
		authed.GET("/", h.dashboard)

		dates := authed.Group("/dates")
		dates.GET("/notify", h.notifyForm)
		dates.POST("/notify", h.notify)
		dates.GET("/hours/:id", h.hoursForm)
		dates.POST("/hours/:id", h.hours)
		dates.GET("/emails-sent/:id", h.emailsSent)
		dates.GET("/list", h.list)
		dates.GET("/list.json", h.listJSON)
		dates.GET("/calendar/events", h.calendarEvents)
	}
	return router
}
