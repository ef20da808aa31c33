package internal

import (
	"net/http"

	"musicwordle/internal/controllers"
	"musicwordle/internal/providers"
)

func InitRoutes(gameController *controllers.GameController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/api/new-game", http.HandlerFunc(gameController.NewGame))
	routers.Post("/api/search-albums", http.HandlerFunc(gameController.SearchAlbums))
	routers.Post("/api/guess", http.HandlerFunc(gameController.Guess))
	routers.Get("/api/game-status", http.HandlerFunc(gameController.GameStatus))
	return routers
}
