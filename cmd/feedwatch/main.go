// feedwatch 以指定用户身份加载首页并订阅推送，打印缓存被事件修改后的计数。
// 本地调试用：直接用服务端的 JWT 密钥签发令牌。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/config"
	"github.com/d60-Lab/chirp/pkg/client"
	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/feedcache"
	"github.com/d60-Lab/chirp/pkg/jwt"
	"github.com/d60-Lab/chirp/pkg/logger"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	_ = logger.Init(cfg.Server.Mode)

	base := env("CHIRP_URL", "http://localhost:"+cfg.Server.Port)
	userID := env("USER_ID", "watcher")
	userName := env("USER_NAME", userID)
	limit := 20
	if v, e := strconv.Atoi(os.Getenv("LIMIT")); e == nil && v > 0 {
		limit = v
	}

	token, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Hour).Generate(jwt.Identity{
		ID: userID, Name: userName, Email: userID + "@localhost",
	})
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess := client.NewSession(client.New(base, token), userID, userName)
	for _, sel := range []feedcache.Selector{feedcache.Feed(), feedcache.FollowingFeed()} {
		if err := sess.Load(ctx, sel, limit); err != nil {
			logger.Error("load feed", zap.String("view", sel.Kind.String()), zap.Error(err))
			os.Exit(1)
		}
	}
	if err := sess.LoadNotifications(ctx); err != nil {
		logger.Warn("load notifications", zap.Error(err))
	}
	printFeed(sess)

	sub, err := sess.Client().Listen(ctx, func(ev dto.Event) {
		changed, err := sess.HandleEvent(ev)
		if err != nil {
			logger.Debug("drop push event", zap.String("event", ev.Event), zap.Error(err))
			return
		}
		fmt.Printf("%s %-24s changed=%v\n", time.Now().Format("15:04:05"), ev.Event, changed)
		if changed {
			printFeed(sess)
		}
	})
	if err != nil {
		logger.Error("listen", zap.Error(err))
		os.Exit(1)
	}
	<-sub.Done()
	if err := sub.Err(); err != nil {
		logger.Warn("push connection lost", zap.Error(err))
	}
}

func printFeed(sess *client.Session) {
	c := sess.Cache()
	fmt.Printf("-- feed (%d) following (%d) notifications (%d)\n",
		len(c.Tweets(feedcache.Feed())), len(c.Tweets(feedcache.FollowingFeed())), len(c.Notifications()))
	for i, t := range c.Tweets(feedcache.Feed()) {
		if i == 5 {
			break
		}
		credit := ""
		if t.RetweetCreditorName != nil {
			credit = " rt:" + *t.RetweetCreditorName
		}
		fmt.Printf("   %s @%s likes=%d retweets=%d comments=%d%s\n",
			short(t.ID), t.User.Name, t.LikeCount, t.RetweetCount, t.CommentCount, credit)
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
