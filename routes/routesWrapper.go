package routes

import (
	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddAuthRoutes(router, d)
	AddItineraryRoutes(router, d)
	AddExportRoutes(router, d)
	AddShareRoutes(router, d)
	AddCommentsRoutes(router, d)
	AddLiveRoutes(router, d)
	AddMapRoutes(router, d)
}
