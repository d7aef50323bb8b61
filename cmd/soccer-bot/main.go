package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fiegsi/peladinha-bot/internal/chatio"
	appcfg "github.com/fiegsi/peladinha-bot/internal/config"
	"github.com/fiegsi/peladinha-bot/internal/match"
	"github.com/fiegsi/peladinha-bot/internal/msgcat"
	"github.com/fiegsi/peladinha-bot/internal/obslog"
	"github.com/fiegsi/peladinha-bot/internal/playerstore"
	"github.com/fiegsi/peladinha-bot/internal/present"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	headers := func() map[string]string {
		h := map[string]string{}
		if cfg.GatewayToken != "" {
			h["Authorization"] = "Bearer " + cfg.GatewayToken
		}
		return h
	}

	client := chatio.NewClient(cfg.GatewayBaseURL, chatio.WithHeaderProvider(headers))

	ws := chatio.NewWebSocket(cfg.GatewayWSURL, cfg.WSMaxReconnects, time.Duration(cfg.WSReconnectDelay)*time.Second)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state chatio.WebSocketState) {
		obslog.L().Info("ws_state", zap.String("state", string(state)))
	})

	repo, closeRepo, err := buildRepository(cfg)
	if err != nil {
		log.Fatalf("repository init error: %v", err)
	}
	defer func() { _ = closeRepo() }()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis url error: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()
	roster := match.NewRedisRosterStore(rdb)

	catalog, err := msgcat.New(cfg.MessageDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}
	formatter := present.NewFormatter(catalog)

	mgr := match.NewManager(repo, roster, client, formatter, nil, match.Options{
		MaxPlayers: cfg.MaxPlayers,
		KitChoice:  cfg.KitChoice,
		LeaderMin:  cfg.LeaderboardMinGames,
		AdminIDs:   cfg.AdminIDs,
	})

	if err := mgr.Recover(context.Background()); err != nil {
		obslog.L().Warn("roster_recovery_failed", zap.Error(err))
	}

	ws.OnEvent(func(ev *chatio.Event) {
		if ev == nil || strings.TrimSpace(ev.Text) == "" {
			return
		}
		if !strings.HasPrefix(strings.TrimSpace(ev.Text), cfg.BotPrefix) {
			return
		}
		// keep the WS read loop free
		go handleCommand(mgr, client, formatter, cfg, ev)
	})

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = ws.Connect(cctx)
	cancel()
	if err != nil {
		log.Fatalf("ws connect error: %v", err)
	}
	obslog.L().Info("bot_started", zap.String("gateway", cfg.GatewayBaseURL))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	_ = ws.Close(context.Background())
	obslog.L().Info("bot_stopped")
}

func buildRepository(cfg *appcfg.AppConfig) (playerstore.Repository, func() error, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		obslog.L().Warn("no_database_url_using_memory_repository")
		return playerstore.NewMemoryRepository(), func() error { return nil }, nil
	}
	return playerstore.NewPostgres(cfg.DatabaseURL)
}

func handleCommand(mgr *match.Manager, client *chatio.Client, formatter *present.Formatter, cfg *appcfg.AppConfig, ev *chatio.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ev.Text), cfg.BotPrefix))
	cmd, args := splitCommand(raw)

	if ev.Direct {
		switch cmd {
		case "register":
			mgr.Register(ctx, ev.UserID, args)
		case "vote":
			n, err := strconv.Atoi(strings.TrimSpace(args))
			if err != nil {
				_ = client.Direct(ctx, ev.UserID, formatter.Msg("match.bad_number"))
				return
			}
			mgr.Vote(ctx, ev.UserID, n)
		default:
			_ = client.Direct(ctx, ev.UserID, helpText(cfg.BotPrefix))
		}
		return
	}

	switch cmd {
	case "match", "start":
		mgr.StartMatch(ctx, ev.ChatID)
	case "cancel":
		mgr.CancelMatch(ctx, ev.ChatID, ev.UserID)
	case "join":
		mgr.Join(ctx, ev.ChatID, ev.UserID)
	case "leave":
		mgr.Leave(ctx, ev.ChatID, ev.UserID)
	case "list", "roster":
		mgr.ShowRoster(ctx, ev.ChatID)
	case "teams":
		mgr.ShowTeams(ctx, ev.ChatID)
	case "add_external":
		if strings.TrimSpace(args) == "" {
			return
		}
		mgr.AddExternal(ctx, ev.ChatID, strings.TrimSpace(args))
	case "remove_external":
		if strings.TrimSpace(args) == "" {
			return
		}
		mgr.RemoveExternal(ctx, ev.ChatID, strings.TrimSpace(args))
	case "testfill":
		n := cfg.MaxPlayers
		if v, err := strconv.Atoi(strings.TrimSpace(args)); err == nil {
			n = v
		}
		mgr.StubFill(ctx, ev.ChatID, ev.UserID, n)
	case "captains":
		mgr.CaptainMethod(ctx, ev.ChatID, ev.UserID, args)
	case "captain":
		n, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil {
			_ = client.Announce(ctx, ev.ChatID, formatter.Msg("match.bad_number"))
			return
		}
		mgr.PickCaptain(ctx, ev.ChatID, ev.UserID, n)
	case "draft":
		mgr.DraftChoice(ctx, ev.ChatID, ev.UserID, args)
	case "pick":
		n, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil {
			_ = client.Announce(ctx, ev.ChatID, formatter.Msg("match.bad_number"))
			return
		}
		mgr.Pick(ctx, ev.ChatID, ev.UserID, n)
	case "kit":
		mgr.ChooseKit(ctx, ev.ChatID, ev.UserID, args)
	case "end":
		mgr.EndMatch(ctx, ev.ChatID)
	case "score":
		a, b, err := parseScore(args)
		if err != nil {
			_ = client.Announce(ctx, ev.ChatID, formatter.Msg("match.score_invalid"))
			return
		}
		mgr.Score(ctx, ev.ChatID, a, b)
	case "stats":
		mgr.Stats(ctx, ev.ChatID, ev.UserID)
	case "leaderboard", "top":
		mgr.Leaderboard(ctx, ev.ChatID)
	case "help":
		_ = client.Announce(ctx, ev.ChatID, helpText(cfg.BotPrefix))
	}
}

func splitCommand(raw string) (cmd, args string) {
	parts := strings.SplitN(raw, " ", 2)
	cmd = strings.ToLower(strings.TrimSpace(parts[0]))
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}
	return cmd, args
}

// parseScore accepts exactly two non-negative integers.
func parseScore(args string) (int, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("want 2 numbers, got %d", len(fields))
	}
	a, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, err
	}
	if a < 0 || b < 0 {
		return 0, 0, fmt.Errorf("negative score")
	}
	return a, b, nil
}

func helpText(prefix string) string {
	var b strings.Builder
	b.WriteString("Pickup soccer organizer\n\n")
	fmt.Fprintf(&b, "%smatch - open a roster\n", prefix)
	fmt.Fprintf(&b, "%sjoin / %sleave - sign up or drop out\n", prefix, prefix)
	fmt.Fprintf(&b, "%slist - show the roster\n", prefix)
	fmt.Fprintf(&b, "%steams - show drafted teams\n", prefix)
	fmt.Fprintf(&b, "%sadd_external <name> - add a guest player\n", prefix)
	fmt.Fprintf(&b, "%sremove_external <name> - remove a guest player\n", prefix)
	fmt.Fprintf(&b, "%scaptains random|manual - choose captains\n", prefix)
	fmt.Fprintf(&b, "%sdraft abab|abba - choose pick order\n", prefix)
	fmt.Fprintf(&b, "%spick <number> - draft a player\n", prefix)
	fmt.Fprintf(&b, "%send - close the match\n", prefix)
	fmt.Fprintf(&b, "%sscore <a> <b> - record the final score\n", prefix)
	fmt.Fprintf(&b, "%sstats - your player card\n", prefix)
	fmt.Fprintf(&b, "%sleaderboard - top rated players\n", prefix)
	fmt.Fprintf(&b, "\nIn a private chat:\n%sregister <name>\n%svote <number>", prefix, prefix)
	return b.String()
}
