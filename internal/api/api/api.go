package api

import (
	"github.com/dabidkayl/metro-backend/cmd/middleware"
	"github.com/dabidkayl/metro-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"
)

type Routers struct {
	Service service.Service
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/register", r.Service.Register)
	apiGroup.POST("/login", r.Service.Login)
	apiGroup.GET("/users", r.Service.GetAllUsers)

	apiGroup.POST("/events", r.Service.CreateEvent)
	apiGroup.GET("/events", r.Service.GetAllEvents)
	apiGroup.GET("/events/:id", r.Service.GetEvent)
	apiGroup.POST("/join-event", r.Service.JoinEvent)

	apiGroup.POST("/request", r.Service.SubmitRequest)
	apiGroup.POST("/request-action", r.Service.ResolveRequest)
	apiGroup.GET("/requests", r.Service.GetAllRequests)

	return app
}
