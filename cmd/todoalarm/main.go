package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"todo-alarm/internal/bot"
	"todo-alarm/internal/config"
	"todo-alarm/internal/importer"
	"todo-alarm/internal/notify"
	"todo-alarm/internal/repository"
	"todo-alarm/internal/service"
	"todo-alarm/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if !cfg.Headless {
		// The terminal belongs to the UI; logs go to a file.
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			log.Fatalf("log dir: %v", err)
		}
		logFile, err := tea.LogToFile(cfg.LogFile, "")
		if err != nil {
			log.Fatalf("log file: %v", err)
		}
		defer logFile.Close()
	}

	db, err := repository.NewDB(cfg.DatabasePath, log.Default())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	taskRepo := repository.NewTaskRepository(db)
	taskSvc := service.NewTaskService(taskRepo)

	if cfg.ImportFile != "" {
		n, err := importer.SeedFile(ctx, taskSvc, cfg.ImportFile)
		if err != nil {
			log.Printf("[warn] import %s: %v", cfg.ImportFile, err)
		}
		if n > 0 {
			log.Printf("[info] imported %d task(s) from %s", n, cfg.ImportFile)
		}
	}

	var remote notify.Fanout
	if cfg.TelegramEnabled() {
		telegramBot, err := bot.New(cfg.Telegram.Token, cfg.Telegram.ChatID, taskSvc)
		if err != nil {
			log.Fatalf("bot: %v", err)
		}
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("bot stopped with error: %v", err)
			}
		}()
		remote = append(remote, notify.FirstAttempt(telegramBot))
	}
	if cfg.EmailEnabled() {
		mailer := notify.NewEmail(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUser, cfg.Email.SMTPPassword, cfg.Email.From, cfg.Email.To)
		go mailer.Run(ctx)
		remote = append(remote, notify.FirstAttempt(mailer))
	}

	bell := notify.NewBell(os.Stderr)
	scheduler := service.NewSchedulerService(time.Local)

	if cfg.Headless {
		runHeadless(ctx, cfg, taskRepo, bell, remote, scheduler)
		return
	}
	runUI(ctx, cfg, taskRepo, taskSvc, bell, remote, scheduler)
}

// runHeadless checks due tasks from the scheduler until the process is stopped.
func runHeadless(ctx context.Context, cfg config.Config, store service.TaskStore, bell *notify.Bell, remote notify.Fanout, scheduler *service.SchedulerService) {
	dueSvc := service.NewDueService(store, headlessChannels(cfg.Bell, bell, remote))

	check := dueCheck(ctx, dueSvc)
	if _, err := scheduler.ScheduleInterval(cfg.CheckInterval, check); err != nil {
		log.Fatalf("schedule due check: %v", err)
	}
	check()
	scheduler.Start()
	defer scheduler.Stop()

	log.Printf("[info] checking due tasks every %s", cfg.CheckInterval)
	<-ctx.Done()
	log.Println("Shutdown complete.")
}

// headlessChannels puts the bell, when enabled, in front of the remote channels.
func headlessChannels(withBell bool, bell *notify.Bell, remote notify.Fanout) notify.Fanout {
	if !withBell {
		return remote
	}
	return append(notify.Fanout{bell}, remote...)
}

// dueCheck returns the scheduler job for one evaluator tick.
func dueCheck(ctx context.Context, dueSvc *service.DueService) func() {
	return func() {
		if _, err := dueSvc.Run(ctx); err != nil {
			log.Printf("due check: %v", err)
		}
	}
}

// runUI drives the terminal UI; the scheduler only posts check messages into its loop.
func runUI(ctx context.Context, cfg config.Config, store service.TaskStore, taskSvc *service.TaskService, bell *notify.Bell, remote notify.Fanout, scheduler *service.SchedulerService) {
	dueSvc := service.NewDueService(store, remote)

	var ringer ui.Ringer
	if cfg.Bell {
		ringer = bell
	}
	p := tea.NewProgram(ui.NewModel(ctx, taskSvc, dueSvc, ringer), tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := scheduler.ScheduleInterval(cfg.CheckInterval, func() { p.Send(ui.CheckDueMsg{}) }); err != nil {
		log.Fatalf("schedule due check: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("[info] todo started")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Printf("ui stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
