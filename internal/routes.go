package internal

import (
	"net/http"
	"workdiary/internal/controllers"
	"workdiary/internal/providers"
)

func InitRoutes(wc *controllers.WorkDiaryController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/workdiary", http.HandlerFunc(wc.Create))
	routers.Get("/workdiary", http.HandlerFunc(wc.ByUserDate))
	routers.Delete("/workdiary", http.HandlerFunc(wc.Delete))
	routers.Get("/workdiary/all", http.HandlerFunc(wc.All))
	routers.Get("/workdiary/ping", http.HandlerFunc(wc.Ping))
	routers.Get("/workdiary/test", http.HandlerFunc(wc.Test))
	routers.Get("/workdiary/test-image-url", http.HandlerFunc(wc.TestImageURL))
	return routers
}
