package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tripweaver/auth"
	"tripweaver/comments"
	"tripweaver/export"
	"tripweaver/generator"
	"tripweaver/itinerary"
	"tripweaver/middleware"
	"tripweaver/ratelim"
	"tripweaver/share"
	"tripweaver/utils"
)

// Deps carries everything the route tables need.
type Deps struct {
	Authenticator *middleware.Authenticator
	RateLimiter   *ratelim.RateLimiter

	Auth        *auth.Handlers
	Generator   *generator.Handlers
	Itineraries *itinerary.Handlers
	Export      *export.Handlers
	Shares      *share.Handlers
	Comments    *comments.Handlers
	Live        httprouter.Handle
	MapConfig   httprouter.Handle
}

func (d Deps) authn(h httprouter.Handle) httprouter.Handle {
	return middleware.Authenticate(d.Authenticator)(h)
}

func (d Deps) optional(h httprouter.Handle) httprouter.Handle {
	return middleware.OptionalAuth(d.Authenticator)(h)
}

func AddAuthRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/auth/register", d.RateLimiter.Limit(d.Auth.Register))
	router.POST("/api/auth/login", d.RateLimiter.Limit(d.Auth.Login))
	router.POST("/api/auth/logout", d.authn(d.Auth.Logout))
}

func AddItineraryRoutes(router *httprouter.Router, d Deps) {
	generate := d.RateLimiter.Limit(d.optional(d.Generator.GenerateItinerary))

	router.GET("/api/itineraries", d.authn(d.Itineraries.GetItineraries))
	router.POST("/api/itineraries", d.authn(d.Itineraries.CreateItinerary))
	// httprouter cannot hold a static segment next to :id, so generate shares the wildcard.
	router.POST("/api/itineraries/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("id") != "generate" {
			utils.RespondWithError(w, http.StatusNotFound, "Not found")
			return
		}
		generate(w, r, ps)
	})
	router.GET("/api/itineraries/:id", d.optional(d.Itineraries.GetItinerary))
	router.PUT("/api/itineraries/:id", d.optional(d.Itineraries.UpdateItinerary))
	router.DELETE("/api/itineraries/:id", d.authn(d.Itineraries.DeleteItinerary))
	router.POST("/api/itineraries/:id/edit", d.optional(d.Itineraries.EditItinerary))
	router.POST("/api/itineraries/:id/close", d.optional(d.Itineraries.CloseItinerary))
	router.POST("/api/itineraries/:id/fork", d.authn(d.Itineraries.ForkItinerary))
}

func AddExportRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/itineraries/:id/pdf", d.optional(d.Export.DownloadPDF))
	router.POST("/api/itineraries/:id/email", d.RateLimiter.Limit(d.authn(d.Export.EmailItinerary)))
}

func AddShareRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/shares", d.authn(d.Shares.ListShares))
	router.POST("/api/shares", d.authn(d.Shares.CreateShare))
	router.GET("/api/shares/:shareid", d.optional(d.Shares.GetShare))
	router.PUT("/api/shares/:shareid", d.authn(d.Shares.UpdateShare))
	router.DELETE("/api/shares/:shareid", d.authn(d.Shares.DeleteShare))
	router.POST("/api/shares/:shareid/view", d.RateLimiter.Limit(d.optional(d.Shares.ViewShare)))
}

func AddCommentsRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/shares/:shareid/comments", d.optional(d.Comments.GetComments))
	router.POST("/api/shares/:shareid/comments", d.RateLimiter.Limit(d.authn(d.Comments.CreateComment)))
	router.DELETE("/api/shares/:shareid/comments/:commentid", d.authn(d.Comments.DeleteComment))
	router.POST("/api/shares/:shareid/comments/:commentid/resolve", d.authn(d.Comments.ResolveComment))
}

func AddLiveRoutes(router *httprouter.Router, d Deps) {
	router.GET("/ws/shares/:shareid", d.optional(d.Live))
}

func AddMapRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/maps/config", d.MapConfig)
}
