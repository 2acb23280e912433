package app

import (
	"testgen_backend/docs"
	"testgen_backend/internal/middleware"
	"testgen_backend/internal/model"
	"testgen_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/", c.health.Root)
	router.GET("/health", c.health.HealthCheck)
	router.POST("/api/auth/login", c.auth.Login)

	// 2. 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(a.Services.Auth))
	{
		a.registerAuthenticatedRoutes(authGroup, c)

		// 3. 教师和管理员
		staff := authGroup.Group("")
		staff.Use(middleware.RoleMiddleware(model.RoleTeacher))
		a.registerStaffRoutes(staff, c)

		// 4. 仅管理员
		admin := authGroup.Group("")
		admin.Use(middleware.RoleMiddleware(model.RoleAdmin))
		a.registerAdminRoutes(admin, c)
	}
}

func (a *App) registerAuthenticatedRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/auth/me", c.auth.Me)
	rg.GET("/auth/users", c.auth.ListUsers)

	rg.GET("/roles", c.role.ListRoles)

	rg.GET("/groups", c.group.ListGroups)
	rg.GET("/groups/:id", c.group.GetGroup)
	rg.GET("/groups/:id/members", c.group.GetMembers)

	rg.GET("/documents", c.document.ListDocuments)
	rg.GET("/documents/:id", c.document.GetDocument)

	rg.GET("/questions", c.question.ListQuestions)
	rg.GET("/questions/:id", c.question.GetQuestion)

	rg.GET("/tests", c.test.ListTests)
	rg.GET("/tests/:id", c.test.GetTest)
	rg.GET("/tests/:id/questions", c.test.GetQuestions)

	// 指派与答题
	rg.GET("/assignments/me", c.assignment.MyAssignments)
	rg.POST("/assignments/:id/complete", c.assignment.CompleteAssignment)
	rg.POST("/tests/:id/start", c.session.StartSession)
	rg.GET("/sessions/:id", c.session.GetSession)
	rg.POST("/sessions/:id/answers", c.session.SubmitAnswer)
	rg.POST("/sessions/:id/complete", c.session.CompleteSession)
	rg.POST("/sessions/:id/abandon", c.session.AbandonSession)
	rg.GET("/results/me", c.session.MyResults)

	rg.GET("/stats/overview", c.health.Overview)
}

func (a *App) registerStaffRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/groups", c.group.CreateGroup)
	rg.DELETE("/groups/:id", c.group.DeleteGroup)
	rg.POST("/groups/:id/members", c.group.AddMember)
	rg.DELETE("/groups/:id/members/:userId", c.group.RemoveMember)

	rg.POST("/documents", c.document.UploadDocument)
	rg.PATCH("/documents/:id/status", c.document.UpdateStatus)
	rg.DELETE("/documents/:id", c.document.DeleteDocument)

	rg.POST("/questions", c.question.CreateQuestion)
	rg.POST("/questions/:id/approve", c.question.ApproveQuestion)
	rg.DELETE("/questions/:id", c.question.DeleteQuestion)

	rg.POST("/moodle/import", c.moodle.ImportXML)
	rg.POST("/moodle/export", c.moodle.ExportSelected)
	rg.GET("/moodle/export", c.moodle.ExportByQuery)
	rg.GET("/moodle/export/approved", c.moodle.ExportApproved)

	rg.POST("/tests", c.test.CreateTest)
	rg.DELETE("/tests/:id", c.test.DeleteTest)
	rg.POST("/tests/:id/questions", c.test.AddQuestion)
	rg.DELETE("/tests/:id/questions/:questionId", c.test.RemoveQuestion)
	rg.POST("/tests/:id/assignments", c.test.CreateAssignment)
	rg.GET("/tests/:id/assignments", c.test.ListAssignments)

	rg.DELETE("/assignments/:id", c.assignment.DeleteAssignment)
	rg.GET("/results", c.session.Results)
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/users", c.user.CreateUser)
	rg.GET("/users/:id", c.user.GetUser)
	rg.DELETE("/users/:id", c.user.DeleteUser)
	rg.PATCH("/users/:id/active", c.user.SetActive)
	rg.GET("/users/:id/roles", c.user.GetUserRoles)
	rg.POST("/users/:id/roles", c.user.AssignRole)
	rg.DELETE("/users/:id/roles/:roleId", c.user.RevokeRole)
	rg.GET("/users/:id/groups", c.user.GetUserGroups)

	rg.POST("/roles", c.role.CreateRole)
	rg.DELETE("/roles/:id", c.role.DeleteRole)
	rg.GET("/roles/:id/users", c.role.GetRoleUsers)

	rg.GET("/audit", c.audit.ListAudit)
	rg.GET("/audit/:id", c.audit.GetAudit)
}
