package api

import (
	"net/http"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/metrics"
	"octofit/tracker-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles the use cases the HTTP layer exposes.
type Services struct {
	Auth          service.AuthService
	Users         service.UserService
	Teams         service.TeamService
	ExerciseTypes service.ExerciseTypeService
	WorkoutPlans  service.WorkoutPlanService
	Activities    service.ActivityService
}

// SetupRoutes registers every route on router. When metricsManager is nil no
// request metrics are recorded; when gatherer is nil /metrics is not served.
func SetupRoutes(
	router *gin.Engine,
	services Services,
	metricsManager *metrics.Manager,
	gatherer prometheus.Gatherer,
) {
	router.Use(PanicRecovery(metricsManager))
	if metricsManager != nil {
		router.Use(RequestMetrics(metricsManager))
	}

	authHandler := NewAuthHandler(services.Auth)
	userHandler := NewUserHandler(services.Users)
	teamHandler := NewTeamHandler(services.Teams)
	exerciseTypeHandler := NewExerciseTypeHandler(services.ExerciseTypes)
	planHandler := NewWorkoutPlanHandler(services.WorkoutPlans)
	activityHandler := NewActivityHandler(services.Activities)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(services.Auth))
	{
		protected.GET("/me", userHandler.GetMe)
		protected.PUT("/me", userHandler.UpdateMe)
		protected.DELETE("/me", userHandler.DeleteMe)
		protected.GET("/me/profile", userHandler.GetProfile)
		protected.PUT("/me/profile", userHandler.UpdateProfile)
		protected.POST("/me/profile/picture/upload-url", userHandler.RequestPictureUpload)
		protected.PUT("/me/profile/picture", userHandler.ConfirmPicture)

		protected.GET("/memberships", teamHandler.ListMyMemberships)

		teamGroup := protected.Group("/teams")
		{
			teamGroup.GET("", teamHandler.ListTeams)
			teamGroup.POST("", teamHandler.CreateTeam)
			teamGroup.GET("/:teamId", teamHandler.GetTeam)
			teamGroup.PUT("/:teamId", teamHandler.UpdateTeam)
			teamGroup.DELETE("/:teamId", teamHandler.DeleteTeam)
			teamGroup.POST("/:teamId/join", teamHandler.JoinTeam)
			teamGroup.POST("/:teamId/leave", teamHandler.LeaveTeam)
			teamGroup.GET("/:teamId/score", teamHandler.GetTeamScore)
			teamGroup.GET("/:teamId/members", teamHandler.ListMembers)
			teamGroup.POST("/:teamId/members", teamHandler.AddMember)
			teamGroup.PATCH("/:teamId/members/:userId", teamHandler.UpdateMemberRole)
			teamGroup.DELETE("/:teamId/members/:userId", teamHandler.RemoveMember)
		}

		// Reading the catalog is open to every user; changing it needs the curator role.
		curator := RoleMiddleware(domain.RoleCurator)
		exerciseTypeGroup := protected.Group("/exercise-types")
		{
			exerciseTypeGroup.GET("", exerciseTypeHandler.ListExerciseTypes)
			exerciseTypeGroup.GET("/:id", exerciseTypeHandler.GetExerciseType)
			exerciseTypeGroup.POST("", curator, exerciseTypeHandler.CreateExerciseType)
			exerciseTypeGroup.PUT("/:id", curator, exerciseTypeHandler.UpdateExerciseType)
			exerciseTypeGroup.DELETE("/:id", curator, exerciseTypeHandler.DeleteExerciseType)
			exerciseTypeGroup.POST("/:id/image/upload-url", curator, exerciseTypeHandler.RequestImageUpload)
			exerciseTypeGroup.PUT("/:id/image", curator, exerciseTypeHandler.ConfirmImage)
		}

		planGroup := protected.Group("/workout-plans")
		{
			planGroup.GET("", planHandler.ListPlans)
			planGroup.POST("", planHandler.CreatePlan)
			planGroup.GET("/:planId", planHandler.GetPlan)
			planGroup.PUT("/:planId", planHandler.UpdatePlan)
			planGroup.DELETE("/:planId", planHandler.DeletePlan)
			planGroup.POST("/:planId/exercises", planHandler.AddPlanExercise)
			planGroup.PUT("/:planId/exercises/:exerciseId", planHandler.UpdatePlanExercise)
			planGroup.DELETE("/:planId/exercises/:exerciseId", planHandler.RemovePlanExercise)
		}

		activityGroup := protected.Group("/activities")
		{
			activityGroup.GET("", activityHandler.ListActivities)
			activityGroup.POST("", activityHandler.LogActivity)
			activityGroup.GET("/statistics", activityHandler.Statistics)
			activityGroup.GET("/:activityId", activityHandler.GetActivity)
			activityGroup.PUT("/:activityId", activityHandler.UpdateActivity)
			activityGroup.DELETE("/:activityId", activityHandler.DeleteActivity)
		}
	}
}
