package main

import (
	"context"
	"fmt"
	"time"

	"PromoVideo-server/config"
	"PromoVideo-server/models"
	"PromoVideo-server/routers"
	"PromoVideo-server/service"
)

func main() {
	config.InitConfig()
	fmt.Println("Server starting on port", config.AppConfig.Server.Port)
	models.InitDB()
	fmt.Println("Database initialized")

	service.InitQueue()
	fmt.Println("Queue initialized")

	service.InitMinIO()
	fmt.Println("MinIO initialized")

	service.ProgressStore.StartSweeper(context.Background(), 5*time.Minute)

	processor := service.NewProcessor(models.DB)
	processor.StartProcessor(2)

	r := routers.InitRouter()
	r.Run(config.AppConfig.Server.Port)
}
