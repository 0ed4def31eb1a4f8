package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// mock-provider emulates the two BD gateways for local end-to-end runs:
// Boomcast's GET endpoint answering plain text, and MiMSMS's JSON POST
// endpoint. After accepting a message it fires a simulated DLR at the
// webhook, using the same correlation ID it returned.
func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	addr := getenv("HTTP_ADDR", ":9090")
	dlrHook := getenv("DLR_WEBHOOK_URL", "http://localhost:8081/sms/webhook/delivery")

	fiberApp := fiber.New(fiber.Config{AppName: "mock-provider", DisableStartupMessage: true})

	// Boomcast-style endpoint: GET with query params, freeform text response.
	fiberApp.Get("/boomcast/send", func(c *fiber.Ctx) error {
		receiver := c.Query("receiver")
		if receiver == "" || c.Query("message") == "" {
			return c.SendString("FAILED - missing receiver or message")
		}

		id := uuid.NewString()[:8]
		body := "SUCCESS - " + id
		log.Info("mock boomcast accepted", "receiver", receiver, "msg_type", c.Query("MsgType"))

		// Boomcast has no structured transaction ID; the DLR carries the
		// response prefix the gateway records as correlation ID.
		go simulateDLR(dlrHook, body, "DELIVRD", log)
		return c.SendString(body)
	})

	// MiMSMS-style endpoint: JSON POST, JSON response.
	fiberApp.Post("/mimsms/api/SmsSending/SMS", func(c *fiber.Ctx) error {
		var req struct {
			MobileNumber string `json:"MobileNumber"`
			Message      string `json:"Message"`
		}
		if err := c.BodyParser(&req); err != nil || req.MobileNumber == "" {
			return c.JSON(fiber.Map{"statusCode": "206", "responseResult": "Invalid Mobile Number"})
		}

		id := uuid.NewString()
		log.Info("mock mimsms accepted", "mobile", req.MobileNumber)

		go simulateDLR(dlrHook, id, "DELIVRD", log)
		return c.JSON(fiber.Map{"statusCode": "200", "MessageId": id})
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("mock-provider listening", "addr", addr)
		if err := fiberApp.Listen(addr); err != nil {
			log.Error("fiber listen", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down mock-provider")
	_ = fiberApp.Shutdown()
}

// simulateDLR calls the delivery webhook after a short delay, the way a real
// gateway reports asynchronously.
func simulateDLR(hookURL, correlationID, status string, log *slog.Logger) {
	time.Sleep(500 * time.Millisecond)

	q := url.Values{}
	q.Set("msgId", correlationID)
	q.Set("status", status)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", hookURL, q.Encode()), nil)
	if err != nil {
		log.Error("create dlr request", "err", err)
		return
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Error("dlr webhook call failed", "correlation_id", correlationID, "err", err)
		return
	}
	defer resp.Body.Close()
	log.Info("dlr webhook called", "correlation_id", correlationID, "status", resp.StatusCode)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
