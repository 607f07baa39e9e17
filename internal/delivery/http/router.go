package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"teamtasks/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes.
// requireAuth wraps every route below /auth; unauthenticated requests get 401
// before any controller runs.
func NewRouter(
	authController *controllers.AuthController,
	teamController *controllers.TeamController,
	invitationController *controllers.InvitationController,
	taskController *controllers.TaskController,
	requireAuth func(http.HandlerFunc) http.HandlerFunc,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Teams
	mux.HandleFunc("POST /teams", requireAuth(teamController.CreateTeam))
	mux.HandleFunc("GET /teams", requireAuth(teamController.ListTeams))
	mux.HandleFunc("GET /teams/{teamID}", requireAuth(teamController.GetTeam))
	mux.HandleFunc("GET /teams/{teamID}/members", requireAuth(teamController.ListTeamMembers))

	// Invitations
	mux.HandleFunc("POST /teams/{teamID}/invitations", requireAuth(invitationController.Send))
	mux.HandleFunc("GET /invitations", requireAuth(invitationController.ListPending))
	mux.HandleFunc("POST /invitations/{invitationID}/accept", requireAuth(invitationController.Accept))
	mux.HandleFunc("POST /invitations/{invitationID}/decline", requireAuth(invitationController.Decline))

	// Tasks
	mux.HandleFunc("POST /tasks", requireAuth(taskController.CreateTask))
	mux.HandleFunc("GET /tasks", requireAuth(taskController.ListTasks))
	mux.HandleFunc("PATCH /tasks/{taskID}", requireAuth(taskController.UpdateTask))
	mux.HandleFunc("DELETE /tasks/{taskID}", requireAuth(taskController.DeleteTask))
	mux.HandleFunc("POST /tasks/{taskID}/toggle", requireAuth(taskController.ToggleTask))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
