package server

import (
	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Start はechoを組み立てて起動する。
func Start(
	addr string,
	cfg config.Config,
	authH *handler.AuthHandler,
	menuH *handler.MenuHandler,
	cartH *handler.CartHandler,
	offerH *handler.OfferHandler,
	orderH *handler.OrderHandler,
	addressH *handler.AddressHandler,
) error {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowCredentials: true,
	}))

	authH.RegisterRoutes(e, cfg)
	menuH.RegisterRoutes(e)
	cartH.RegisterRoutes(e, cfg)
	offerH.RegisterRoutes(e, cfg)
	orderH.RegisterRoutes(e, cfg)
	addressH.RegisterRoutes(e, cfg)

	return e.Start(addr)
}
