package http

import (
	"github.com/gin-gonic/gin"
	"github.com/iyhunko/product-listings/internal/http/controller"
	"github.com/iyhunko/product-listings/internal/http/middleware"
)

func InitRouter(server *gin.Engine, ctr *controller.Controller, productCtr *controller.ProductController) *gin.Engine {
	// Apply recovery middleware globally to prevent panics from crashing the server
	server.Use(middleware.Recovery(), middleware.Logger(), middleware.CORS())

	server.GET("/ping", ctr.Ping)

	api := server.Group("/api")
	api.GET("/", ctr.Root)

	// "/products/" routes reach the handlers with an empty id, which they reject.
	products := api.Group("/products")
	{
		products.GET("", productCtr.ListProducts)
		products.POST("", productCtr.CreateProduct)
		products.GET("/", productCtr.GetProduct)
		products.GET("/:productId", productCtr.GetProduct)
		products.PUT("/", productCtr.UpdateProduct)
		products.PUT("/:productId", productCtr.UpdateProduct)
		products.DELETE("/", productCtr.DeleteProduct)
		products.DELETE("/:productId", productCtr.DeleteProduct)
	}

	return server
}
