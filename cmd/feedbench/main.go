package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/chirp/config"
	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/service"
	"github.com/d60-Lab/chirp/pkg/database"
	"github.com/d60-Lab/chirp/pkg/dto"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

func report(name string, vs []time.Duration) {
	fmt.Printf("%-28s n=%-6d avg=%-12v p95=%-12v p99=%v\n", name, len(vs), avg(vs), pct(vs, 0.95), pct(vs, 0.99))
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			return v
		}
	}
	return def
}

func openDB() *gorm.DB {
	if os.Getenv("MEMORY") != "" {
		return must(database.OpenMemory())
	}
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if cfg.Database.Driver == "postgres" || cfg.Database.Driver == "" {
		// 本地基准：清空后重新播种
		_ = db.Exec("TRUNCATE TABLE notifications, comments, likes, retweets, images, tweets, follows, users CASCADE").Error
	}
	return db
}

func main() {
	USERS := envInt("USERS", 500)
	TWEETS := envInt("TWEETS", 5000)
	FOLLOWS := envInt("FOLLOWS", 50) // 每个用户关注的人数
	LIMIT := envInt("LIMIT", 10)
	READS := envInt("READS", 200)
	TOGGLES := envInt("TOGGLES", 1000)
	WORKERS := envInt("WORKERS", 8)

	db := openDB()
	ctx := context.Background()
	tweets := service.NewTweetService(db, nil)
	profiles := service.NewProfileService(db, nil, nil)

	// seed users
	users := make([]model.User, USERS)
	for i := range users {
		id := uuid.NewString()
		users[i] = model.User{ID: id, Name: "u" + id[:8], Email: id[:8] + "@example.com"}
	}
	if err := db.CreateInBatches(&users, 500).Error; err != nil {
		panic(err)
	}

	// follow graph
	rng := rand.New(rand.NewSource(1))
	for _, u := range users {
		for _, j := range rng.Perm(USERS)[:min(FOLLOWS, USERS)] {
			if users[j].ID == u.ID {
				continue
			}
			if _, err := profiles.ToggleFollow(ctx, u.ID, users[j].ID); err != nil {
				panic(err)
			}
		}
	}

	// create tweets
	created := make([]string, 0, TWEETS)
	createLat := make([]time.Duration, 0, TWEETS)
	for i := 0; i < TWEETS; i++ {
		author := users[rng.Intn(USERS)].ID
		st := time.Now()
		t, err := tweets.Create(ctx, author, dto.CreateTweetRequest{Content: fmt.Sprintf("hello %d", i)})
		if err != nil {
			panic(err)
		}
		createLat = append(createLat, time.Since(st))
		created = append(created, t.ID)
	}

	// concurrent like/retweet toggles
	var (
		mu        sync.Mutex
		toggleLat []time.Duration
		wg        sync.WaitGroup
	)
	jobs := make(chan int)
	for w := 0; w < WORKERS; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := range jobs {
				user := users[r.Intn(USERS)].ID
				tweet := created[r.Intn(len(created))]
				st := time.Now()
				var err error
				if i%2 == 0 {
					_, err = tweets.ToggleLike(ctx, user, tweet)
				} else {
					_, err = tweets.ToggleRetweet(ctx, user, tweet)
				}
				d := time.Since(st)
				if err != nil {
					panic(err)
				}
				mu.Lock()
				toggleLat = append(toggleLat, d)
				mu.Unlock()
			}
		}(int64(w + 2))
	}
	for i := 0; i < TOGGLES; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// first page reads
	feedLat := make([]time.Duration, 0, READS)
	followingLat := make([]time.Duration, 0, READS)
	profileLat := make([]time.Duration, 0, READS)
	for i := 0; i < READS; i++ {
		viewer := users[rng.Intn(USERS)].ID
		st := time.Now()
		_ = must(tweets.InfiniteFeed(ctx, viewer, false, LIMIT, nil))
		feedLat = append(feedLat, time.Since(st))

		st = time.Now()
		_ = must(tweets.InfiniteFeed(ctx, viewer, true, LIMIT, nil))
		followingLat = append(followingLat, time.Since(st))

		st = time.Now()
		_ = must(tweets.InfiniteProfileFeed(ctx, viewer, users[rng.Intn(USERS)].ID, LIMIT, nil))
		profileLat = append(profileLat, time.Since(st))
	}

	// walk the whole global feed by cursor
	var (
		pageLat []time.Duration
		cursor  *dto.Cursor
		seen    = make(map[string]bool, TWEETS)
		dups    int
	)
	viewer := users[0].ID
	for {
		st := time.Now()
		page := must(tweets.InfiniteFeed(ctx, viewer, false, LIMIT, cursor))
		pageLat = append(pageLat, time.Since(st))
		for _, t := range page.Tweets {
			if seen[t.ID] {
				dups++
			}
			seen[t.ID] = true
		}
		if page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}

	fmt.Printf("USERS=%d TWEETS=%d FOLLOWS=%d LIMIT=%d WORKERS=%d\n", USERS, TWEETS, FOLLOWS, LIMIT, WORKERS)
	report("create tweet", createLat)
	report("toggle like/retweet", toggleLat)
	report("feed first page", feedLat)
	report("following first page", followingLat)
	report("profile first page", profileLat)
	report("feed page (full walk)", pageLat)
	fmt.Printf("full walk: pages=%d tweets=%d duplicates=%d\n", len(pageLat), len(seen), dups)
}
