package main

import (
	"context"
	"os"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	"github.com/fillip-70-jackdaw/business-wisdom/app_setting"
	"github.com/fillip-70-jackdaw/business-wisdom/digest"
	"github.com/fillip-70-jackdaw/business-wisdom/notifier"
	"github.com/fillip-70-jackdaw/business-wisdom/server"
	"github.com/fillip-70-jackdaw/business-wisdom/server/middlewares"
	. "github.com/fillip-70-jackdaw/business-wisdom/utils"
	"github.com/fillip-70-jackdaw/business-wisdom/utils/dotenv"
	. "github.com/fillip-70-jackdaw/business-wisdom/utils/flag"
	. "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

func init() {
	Parse()

	// Middlewares
	middlewares.Setup()

	Log.Info("api server initialized")
}

func cleanup() {
	CloseProfiler()
	CloseTracer()
	Log.Info("api server shutdown")
}

func main() {
	defer cleanup()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	InitTracer()
	InitProfiler()

	setting := app_setting.DefaultServerAppSetting()
	if path := os.Getenv("APP_SETTING_PATH"); path != "" {
		setting = app_setting.ParseServerAppSetting(path)
	}

	db, err := GetDBConnection()
	if err != nil {
		Log.Fatal("cannot connect to database: ", err)
	}
	DatabaseSetupAndMigration(db)

	redis := GetRedisClient()

	bus := notifier.NewEventBus()
	defer bus.Close()
	var metrics *statsd.Client
	if addr := os.Getenv("DD_AGENT_ADDR"); addr != "" {
		if metrics, err = statsd.New(addr); err != nil {
			Log.Error("cannot create statsd client: ", err)
			metrics = nil
		}
	}
	reporter := notifier.NewReporter(metrics, os.Getenv("SLACK_WEBHOOK_URL"), bus)
	go func() {
		if err := reporter.Run(context.Background()); err != nil && err != context.Canceled {
			Log.Error("notification reporter stopped: ", err)
		}
	}()

	var captioner digest.Captioner
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		captioner, err = digest.NewGeminiCaptioner(context.Background(), apiKey, "")
		if err != nil {
			// Digests fall back to the canned caption.
			Log.Error("cannot create digest captioner: ", err)
			captioner = nil
		}
	}

	api := server.NewApiServer(db, redis, bus, setting, captioner, digest.LogSender{})

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(gintrace.Middleware(ServiceName))

	api.RegisterRoutes(router)

	Log.Info("api server starts up on ", setting.SERVER_ADDR)
	router.Run(setting.SERVER_ADDR)
}
