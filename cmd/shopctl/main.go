package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"stars-shop-backend/internal/common/logger"
	"stars-shop-backend/internal/flow"
)

// shopctl drives one full purchase flow against a running storefront
// backend: resolve identity, quote, submit, then poll the purchase status
// until it reaches a terminal state. Without a recipient it resumes any
// in-flight purchase persisted by a previous run.
func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080", "storefront backend URL")
		amount    = flag.Int64("amount", 0, "star quantity to buy")
		recipient = flag.String("recipient", "", "recipient username; empty resumes a pending purchase")
		currency  = flag.String("currency", flow.DefaultCurrency, "payment currency")
		token     = flag.String("token", "", "one-time login token from a bot deep link")
		initData  = flag.String("init-data", "", "raw Telegram WebApp init data")
		session   = flag.String("session", defaultSessionPath(), "session file path")
		stats     = flag.Bool("stats", false, "print storefront statistics and exit")
		debug     = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	logger.Init("shopctl", *debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	controller := flow.NewController(flow.Options{
		ServerURL: *serverURL,
		Store:     flow.NewFileStore(*session),
		Notifier:  flow.NewLogNotifier(),
	})

	if *stats {
		printStats(ctx, *serverURL)
		return
	}

	identity := controller.ResolveIdentity(ctx, flow.ResolveOptions{
		InitData: *initData,
		Token:    *token,
	})
	if identity.Anonymous() {
		fmt.Println("Покупка без авторизации (анонимно)")
	} else {
		fmt.Printf("Пользователь: @%s (%d)\n", identity.Username, identity.UserID)
	}

	if *recipient == "" {
		resumeOrQuote(ctx, controller, *amount, *currency)
		return
	}

	price, err := controller.Quote(ctx, *amount, *currency)
	if err == nil {
		fmt.Printf("Стоимость: %.6f %s (без скидки %.6f)\n", price.Discounted, *currency, price.Base)
	}

	presentation, err := controller.Submit(ctx, *amount, *recipient, *currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка покупки: %v\n", err)
		os.Exit(1)
	}

	printPresentation(presentation)
	awaitResult(ctx, controller.ActivePoll())
}

func resumeOrQuote(ctx context.Context, controller *flow.Controller, amount int64, currency string) {
	if handle, ok := controller.Resume(); ok {
		fmt.Printf("Возобновление ожидания оплаты покупки %s...\n", handle.PurchaseID())
		awaitResult(ctx, handle)
		return
	}

	price, err := controller.Quote(ctx, amount, currency)
	if err != nil {
		os.Exit(1)
	}
	fmt.Printf("Стоимость: %.6f %s (без скидки %.6f)\n", price.Discounted, currency, price.Base)
}

func printPresentation(p *flow.Presentation) {
	switch {
	case p.InvoiceURL != "":
		fmt.Printf("Оплатите счет: %s\n", p.InvoiceURL)
	case p.QRCode != "":
		fmt.Println(p.PaymentMessage)
		fmt.Printf("Ссылка для оплаты: %s\n", p.QRCode)
	}
	fmt.Println("Ожидание оплаты...")
}

func awaitResult(ctx context.Context, handle *flow.PollHandle) {
	if handle == nil {
		return
	}

	select {
	case <-ctx.Done():
		handle.Cancel()
		<-handle.Done()
		fmt.Println("Прервано")
		os.Exit(130)
	case <-handle.Done():
	}

	result := handle.Result()
	fmt.Println(result.Message)
	if result.State != flow.PollCompleted {
		os.Exit(1)
	}
}

func printStats(ctx context.Context, serverURL string) {
	stats, err := flow.NewClient(serverURL).Statistics(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки статистики: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Всего отправлено звезд: %d\n", stats.TotalStarsSent)
	fmt.Printf("Вчера: %d\n", stats.YesterdayStarsSent)
	fmt.Printf("Сегодня: %d\n", stats.TodayStarsSent)
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stars-shop-session.json"
	}
	return filepath.Join(home, ".stars-shop", "session.json")
}
