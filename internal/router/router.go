package router

import (
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/handlers"
	"github.com/cleantrack-dev/cleantrack/internal/middleware"
	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/ratelimit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Handler        *handlers.Handler
	Tokens         middleware.TokenVerifier
	Users          middleware.UserLoader
	Limiter        ratelimit.Limiter
	AuthRateLimit  int
	AllowedOrigins []string
	Log            *logrus.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := d.Handler
	authenticated := middleware.AuthMiddleware(d.Tokens, d.Users, d.Log)
	authLimit := middleware.RateLimit(d.Limiter, "auth", d.AuthRateLimit, time.Minute, d.Log)

	owner := middleware.RequireRole(models.RoleOwner)
	employee := middleware.RequireRole(models.RoleEmployee)
	admin := middleware.RequireRole(models.RoleAdmin)
	ownerOrEmployee := middleware.RequireRole(models.RoleOwner, models.RoleEmployee)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/ws/properties/:property_id", authenticated, h.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/signup", authLimit, h.Signup)
			auth.POST("/login", authLimit, h.Login)
			auth.POST("/logout", h.Logout)
			auth.GET("/me", authenticated, h.Me)
		}

		api.GET("/owner/dashboard", authenticated, owner, h.OwnerDashboard)
		api.GET("/employee/dashboard", authenticated, employee, h.EmployeeDashboard)

		employees := api.Group("/employees", authenticated, owner)
		{
			employees.GET("", h.ListEmployees)
			employees.POST("", h.CreateEmployee)
			employees.GET("/:employee_id", h.GetEmployee)
			employees.DELETE("/:employee_id", h.DeleteEmployee)
			employees.GET("/:employee_id/properties", h.EmployeeProperties)
			employees.PUT("/:employee_id/properties", h.AssignProperties)
		}

		properties := api.Group("/properties", authenticated)
		{
			properties.GET("", owner, h.ListProperties)
			properties.POST("", owner, h.CreateProperty)
			properties.POST("/pending-counts", ownerOrEmployee, h.PendingCounts)
			properties.GET("/:property_id", h.GetProperty)
			properties.PATCH("/:property_id", h.UpdateProperty)
			properties.DELETE("/:property_id", h.DeleteProperty)
			properties.GET("/:property_id/access", h.CheckAccess)
			properties.GET("/:property_id/tasks", h.ListTasks)
			properties.POST("/:property_id/tasks", h.CreateTask)
		}

		api.POST("/tasks/:task_id/complete", authenticated, h.CompleteTask)

		admins := api.Group("/admin", authenticated, admin)
		{
			admins.GET("/owners", h.ListOwners)
			admins.PATCH("/owners/:owner_id/subscription", h.UpdateSubscription)
			admins.GET("/owners/:owner_id/subscription/history", h.SubscriptionHistory)
		}
	}

	return r
}
