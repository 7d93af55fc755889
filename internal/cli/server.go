package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"medquiz-service/internal/ai"
	"medquiz-service/internal/app"
	"medquiz-service/internal/config"
	"medquiz-service/internal/domain"
	"medquiz-service/internal/infra/memory"
	pgstore "medquiz-service/internal/infra/postgres"
	redisinfra "medquiz-service/internal/infra/redis"
	transport "medquiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	var writer transport.QuestionWriter
	var sink app.ResultSink = memory.NewResultSink()
	if pool != nil {
		store := pgstore.NewQuestionStore(pool)
		loader = store
		writer = store
		sink = pgstore.NewResultSink(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisinfra.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, questionTTL)
	}

	var games app.GameRepository
	var board app.ScoreBoard
	if redisClient != nil {
		games = redisinfra.NewGameStore(redisClient, redisTTL)
		board = redisinfra.NewLeaderboard(redisClient)
	} else {
		games = memory.NewGameStore()
		board = memory.NewLeaderboard()
	}

	service := app.NewGameService(games, questionRepo, sink, board)
	defer service.Close()

	var generator *ai.Generator
	if cfg.AI.URL != "" {
		generator = ai.NewGenerator(cfg.AI.URL, config.TTLDuration(cfg.AI.Timeout, 30*time.Second))
	}

	wsHandler := transport.NewWSHandler(service)
	apiHandler := transport.NewAPIHandler(service, generator, writer)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting medquiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions seeds the no-database demo mode; production deployments
// load questions from Postgres.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:       "q-cardio-1",
			Category: "Cardiology",
			Level:    domain.LevelBeginner,
			Text:     "Which chamber of the heart pumps oxygenated blood into the aorta?",
			Choices: []string{
				"Right atrium", "Left ventricle", "Right ventricle", "Left atrium",
			},
			CorrectAnswer: 1,
			Explanation:   "The left ventricle ejects oxygenated blood through the aortic valve into systemic circulation.",
		},
		{
			ID:       "q-cardio-2",
			Category: "Cardiology",
			Level:    domain.LevelIntermediate,
			Text:     "Which ECG change is most characteristic of an acute STEMI?",
			Choices: []string{
				"PR depression", "ST-segment elevation", "U waves", "Delta waves",
			},
			CorrectAnswer: 1,
			Explanation:   "Acute transmural ischemia produces ST-segment elevation in the leads facing the infarcted territory.",
		},
		{
			ID:       "q-neuro-1",
			Category: "Neurology",
			Level:    domain.LevelIntermediate,
			Text:     "A fixed dilated pupil on one side most likely indicates compression of which cranial nerve?",
			Choices: []string{
				"Optic nerve (II)", "Trochlear nerve (IV)", "Oculomotor nerve (III)", "Abducens nerve (VI)",
			},
			CorrectAnswer: 2,
			Explanation:   "Uncal herniation compresses the oculomotor nerve, knocking out its parasympathetic fibers first.",
		},
		{
			ID:       "q-pneumo-1",
			Category: "Pulmonology",
			Level:    domain.LevelBeginner,
			Text:     "Hyperresonance on percussion with absent breath sounds on one side suggests which diagnosis?",
			Choices: []string{
				"Pleural effusion", "Pneumothorax", "Lobar pneumonia", "Atelectasis",
			},
			CorrectAnswer: 1,
			Explanation:   "Air in the pleural space percusses hyperresonant and silences breath sounds on the affected side.",
		},
	}
}
