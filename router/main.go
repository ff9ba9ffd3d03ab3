package router

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/database"
	"github.com/sahilchouksey/educa-api/handlers"
	admin_handlers "github.com/sahilchouksey/educa-api/handlers/admin"
	assignment_handlers "github.com/sahilchouksey/educa-api/handlers/assignment"
	auth_handlers "github.com/sahilchouksey/educa-api/handlers/auth"
	catalog_handlers "github.com/sahilchouksey/educa-api/handlers/catalog"
	course_handlers "github.com/sahilchouksey/educa-api/handlers/course"
	student_handlers "github.com/sahilchouksey/educa-api/handlers/student"
	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/services"
	"github.com/sahilchouksey/educa-api/services/storage"
	"github.com/sahilchouksey/educa-api/utils"
	"github.com/sahilchouksey/educa-api/utils/auth"
	"github.com/sahilchouksey/educa-api/utils/cache"
	"github.com/sahilchouksey/educa-api/utils/middleware"
)

// Options carries the collaborators built at startup
type Options struct {
	JWTManager *auth.JWTManager
	// Cache may be nil; the catalog then reads through and logins are unguarded
	Cache           *cache.RedisCache
	Storage         storage.FileStorage
	Email           *services.EmailService
	AuditLog        *utils.Logger
	CatalogCacheTTL time.Duration
	AllowedOrigins  string
	// RateLimit is requests per minute per IP; 0 disables the limiter
	RateLimit int
	// MediaURL is where local storage is served from
	MediaURL string
}

func SetupRoutes(app *fiber.App, store database.Storage, opts Options) {
	db := store.GetDB()

	var catalogCache services.JSONCache
	var bruteForceProtection *middleware.BruteForceProtection
	if opts.Cache != nil {
		catalogCache = opts.Cache
		bruteForceProtection = middleware.NewBruteForceProtection(opts.Cache)
	} else {
		log.Println("Warning: Redis unavailable. Catalog cache and brute force protection are disabled.")
	}

	auditLog := opts.AuditLog
	if auditLog == nil {
		auditLog = utils.NewLogger()
	}

	catalogService := services.NewCatalogService(db, catalogCache, opts.CatalogCacheTTL)
	courseService := services.NewCourseService(db, catalogService)
	contentService := services.NewContentService(db, opts.Storage)
	orderingService := services.NewOrderingService(db, auditLog)
	enrollmentService := services.NewEnrollmentService(db, opts.Email)
	assignmentService := services.NewAssignmentService(db, opts.Storage)

	authMiddleware := middleware.NewAuthMiddleware(opts.JWTManager, db)
	authHandler := auth_handlers.NewAuthHandler(db, opts.JWTManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(courseService, contentService, orderingService)
	catalogHandler := catalog_handlers.NewCatalogHandler(catalogService, enrollmentService)
	studentHandler := student_handlers.NewStudentHandler(enrollmentService)
	assignmentHandler := assignment_handlers.NewAssignmentHandler(assignmentService)
	userHandler := admin_handlers.NewUserHandler(db)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    opts.AllowedOrigins,
		RateLimitRequests: opts.RateLimit,
		RateLimitWindow:   time.Minute,
	})

	if local, ok := opts.Storage.(*storage.LocalStorage); ok && opts.MediaURL != "" {
		app.Static(opts.MediaURL, local.Root())
	}

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// Accounts
	accounts := app.Group("/accounts")
	accounts.Post("/register/", authHandler.Register)
	accounts.Post("/login/", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	accounts.Post("/refresh/", authHandler.RefreshToken)
	accounts.Post("/logout/", authMiddleware.Required(), authHandler.Logout)
	accounts.Get("/profile/", authMiddleware.Required(), authHandler.GetProfile)
	accounts.Put("/profile/", authMiddleware.Required(), authHandler.UpdateProfile)
	accounts.Put("/password/", authMiddleware.Required(), authHandler.ChangePassword)

	required := authMiddleware.Required()
	author := authMiddleware.RequireRole(model.RoleInstructor, model.RoleAdmin)

	// Public catalog
	app.Get("/courses/", catalogHandler.ListCourses)

	course := app.Group("/course")

	// Literal segments are registered before /course/:slug/
	course.Get("/subject/", catalogHandler.ListSubjects)
	course.Get("/subject/:slug/", catalogHandler.ListCourses)

	// Owner course management
	course.Get("/mine/", required, courseHandler.ListMine)
	course.Post("/create/", required, author, courseHandler.Create)
	course.Get("/:id/edit/", required, courseHandler.Edit)
	course.Post("/:id/edit/", required, courseHandler.Update)
	course.Post("/:id/delete/", required, courseHandler.Delete)
	course.Get("/:id/module/", required, courseHandler.Modules)
	course.Post("/:id/module/", required, courseHandler.SaveModules)

	// Module contents
	course.Post("/module/order/", required, courseHandler.OrderModules)
	course.Post("/content/order/", required, courseHandler.OrderContents)
	course.Get("/module/:module_id/", required, courseHandler.ModuleContents)
	course.Get("/module/:module_id/content/:model_name/create/", required, courseHandler.ContentForm)
	course.Post("/module/:module_id/content/:model_name/create/", required, courseHandler.CreateContent)
	course.Get("/module/:module_id/content/:model_name/:id/", required, courseHandler.ContentForm)
	course.Post("/module/:module_id/content/:model_name/:id/", required, courseHandler.UpdateContent)
	course.Post("/content/:id/delete/", required, courseHandler.DeleteContent)

	// Assignments
	course.Get("/assignment_list/", required, assignmentHandler.List)
	course.Post("/assignment/create/", required, assignmentHandler.Create)
	course.Get("/assignment/:id/", required, assignmentHandler.Get)
	course.Post("/assignment/:id/delete/", required, assignmentHandler.Delete)

	course.Get("/:slug/", authMiddleware.Optional(), catalogHandler.CourseDetail)

	// Students
	students := app.Group("/students", required)
	students.Post("/enroll-course/", studentHandler.Enroll)
	students.Get("/courses/", studentHandler.ListCourses)
	students.Get("/course/:id/", studentHandler.CourseDetail)
	students.Get("/course/:id/:module_id/", studentHandler.CourseDetail)

	// Admin
	admin := app.Group("/admin", required, authMiddleware.RequireRole(model.RoleAdmin))
	admin.Get("/users/", userHandler.ListUsers)
	admin.Put("/users/:id/role/", userHandler.UpdateUserRole)
}
