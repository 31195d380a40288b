package routes

import (
	"log"

	_ "loja_checkout/docs" // generated by swag init
	"loja_checkout/internal/adapter/http/handlers"
	"loja_checkout/internal/adapter/http/middleware"
	"loja_checkout/internal/adapter/persistence/repository"
	"loja_checkout/internal/infrastructure/config"
	"loja_checkout/internal/infrastructure/database"
	"loja_checkout/internal/infrastructure/ordernumber"
	"loja_checkout/internal/usecase"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var router *gin.Engine

// Run will start the server
func Run(cfg *config.Config) {
	gin.SetMode(cfg.GinMode)
	router = gin.New()
	setMiddlewares()

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	getRoutes(cfg)

	log.Printf("[server] listening port=%s mode=%s", cfg.Port, gin.Mode())
	err := router.Run(":" + cfg.Port)
	if err != nil {
		log.Fatalf("Failed to startup the application: %v", err.Error())
	}
}

func getRoutes(cfg *config.Config) {
	ddb := database.ConnectDynamoDB(cfg)

	productRepo := repository.NewProductDynamoRepository(ddb, cfg.Tables)
	settingsRepo := repository.NewSettingsDynamoRepository(ddb, cfg.Tables)
	addressRepo := repository.NewAddressDynamoRepository(ddb, cfg.Tables)
	orderRepo := repository.NewOrderDynamoRepository(ddb, cfg.Tables)
	attemptRepo := repository.NewPaymentAttemptDynamoRepository(ddb, cfg.Tables)
	buyerRepo := repository.NewBuyerDynamoRepository(ddb, cfg.Tables)
	numbers := ordernumber.NewGenerator(cfg.OrderNumberPrefix)

	checkoutUseCase := usecase.NewCheckoutUseCase(productRepo, settingsRepo, addressRepo, orderRepo, attemptRepo, numbers)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutUseCase)

	v1 := router.Group("/v1")
	// Rotas publicas
	addPingRoutes(v1)
	// Rotas autenticadas
	addCheckoutRoutes(v1, checkoutHandler, middleware.BuyerAuth(buyerRepo))
}

func setMiddlewares() {
	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(500)
	}))
}
