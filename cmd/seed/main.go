// cmd/seed/main.go
//
// Fixture generator for local development and manual feed testing: users,
// posts spread across a small category/subcategory taxonomy, and one demo
// user's persistent interest profile so GET /feed returns something
// non-trivial without a live engagement history.
package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"feedranker/internal/config"
	"feedranker/internal/models"
)

var taxonomy = map[string][]string{
	"technology": {"programming", "gadgets", "ai"},
	"sports":     {"football", "basketball", "running"},
	"cooking":    {"baking", "grilling", "vegan"},
	"travel":     {"backpacking", "luxury", "roadtrips"},
	"music":      {"rock", "hiphop", "classical"},
}

type seedConfig struct {
	UserCount     int
	PostsPerUser  int
	CleanExisting bool
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := parseArgs()

	config.MustLoad()
	config.InitDB()
	defer config.Disconnect()

	ctx := context.Background()
	rand.Seed(time.Now().UnixNano())

	if cfg.CleanExisting {
		log.Println("Cleaning existing fixture collections...")
		for _, coll := range []string{"users", "posts", "user_profiles", "global_stats", "user_interest_stats", "creator_stats"} {
			if _, err := config.DB.Collection(coll).DeleteMany(ctx, map[string]interface{}{}); err != nil {
				log.Printf("warning: failed clearing %s: %v", coll, err)
			}
		}
	}

	users := seedUsers(ctx, cfg.UserCount)
	log.Printf("Seeded %d users", len(users))

	creatorIDs := make([]string, 0, len(users)/3+1)
	for i, u := range users {
		if i%3 == 0 {
			creatorIDs = append(creatorIDs, u.IDHex())
		}
	}
	if len(creatorIDs) == 0 && len(users) > 0 {
		creatorIDs = append(creatorIDs, users[0].IDHex())
	}

	postCount := seedPosts(ctx, creatorIDs, cfg.PostsPerUser*len(users)/len(creatorIDs))
	log.Printf("Seeded %d posts across %d categories", postCount, len(taxonomy))

	if len(users) > 0 {
		seedDemoProfile(ctx, users[0].IDHex())
		log.Printf("Seeded demo interest profile for user %s", users[0].IDHex())
	}

	log.Println("Seeding complete")
}

func parseArgs() seedConfig {
	cfg := seedConfig{UserCount: 50, PostsPerUser: 8, CleanExisting: false}

	args := os.Args[1:]
	for i, arg := range args {
		switch arg {
		case "--users", "-u":
			if i+1 < len(args) {
				if n, err := strconv.Atoi(args[i+1]); err == nil {
					cfg.UserCount = n
				}
			}
		case "--posts", "-p":
			if i+1 < len(args) {
				if n, err := strconv.Atoi(args[i+1]); err == nil {
					cfg.PostsPerUser = n
				}
			}
		case "--clean", "-c":
			cfg.CleanExisting = true
		}
	}

	return cfg
}

func seedUsers(ctx context.Context, count int) []*models.User {
	users := make([]*models.User, 0, count)
	coll := config.DB.Collection("users")

	for i := 0; i < count; i++ {
		u := &models.User{
			Username: "user_" + uuid.New().String()[:8],
			Email:    "user" + strconv.Itoa(i) + "_" + uuid.New().String()[:6] + "@example.test",
			IsActive: true,
		}
		u.ID = primitive.NewObjectID()
		u.BeforeCreate()

		if _, err := coll.InsertOne(ctx, u); err != nil {
			log.Printf("warning: failed to insert user: %v", err)
			continue
		}
		users = append(users, u)
	}

	return users
}

func seedPosts(ctx context.Context, creatorIDs []string, totalPosts int) int {
	if totalPosts <= 0 {
		totalPosts = len(creatorIDs) * 8
	}
	coll := config.DB.Collection("posts")

	categories := make([]string, 0, len(taxonomy))
	for cat := range taxonomy {
		categories = append(categories, cat)
	}

	inserted := 0
	for i := 0; i < totalPosts; i++ {
		category := categories[rand.Intn(len(categories))]
		subs := taxonomy[category]
		sub := subs[rand.Intn(len(subs))]
		creator := creatorIDs[rand.Intn(len(creatorIDs))]

		ageHours := rand.Intn(24 * 14)
		createdAt := time.Now().Add(-time.Duration(ageHours) * time.Hour)
		impressions := int64(rand.Intn(5000) + 50)
		engagement := float64(rand.Intn(int(impressions)))

		post := &models.Post{
			Creator:         creator,
			Category:        category,
			SubCategory:     sub,
			ImpressionCount: impressions,
			EngagementSum:   engagement,
			RawScore:        engagement,
			TrendingScore:   engagement / float64(ageHours+1),
			BayesianScore:   engagement / float64(impressions),
			IsRising:        ageHours < 48,
			IsEvergreen:     ageHours > 24*10,
		}
		post.ID = primitive.NewObjectID()
		post.CreatedAt = createdAt
		post.UpdatedAt = createdAt

		if _, err := coll.InsertOne(ctx, post); err != nil {
			log.Printf("warning: failed to insert post: %v", err)
			continue
		}
		inserted++
	}

	return inserted
}

// seedDemoProfile gives one user a populated persistent profile spanning
// every category in the taxonomy, with the first one promoted into the
// rising tier, so a manual GET /feed exercises every candidate pool.
func seedDemoProfile(ctx context.Context, userID string) {
	oid, err := models.ObjectIDFromHex(userID)
	if err != nil {
		log.Printf("warning: invalid demo user id: %v", err)
		return
	}

	now := time.Now().UnixMilli()
	var top, rising []*models.CategoryNode

	i := 0
	for category, subs := range taxonomy {
		node := &models.CategoryNode{
			Name:        category,
			Score:       float64(10 + i),
			LastUpdated: now,
		}
		for _, sub := range subs {
			node.TopSubs = append(node.TopSubs, &models.SubNode{
				Name:        sub,
				Score:       float64(5 + i),
				LastUpdated: now,
			})
		}

		if i == 0 {
			rising = append(rising, node)
		} else {
			top = append(top, node)
		}
		i++
	}

	profile := &models.UserProfile{
		UserID:          oid,
		TopInterests:    top,
		RisingInterests: rising,
		SeenPosts:       []string{},
	}
	profile.ID = primitive.NewObjectID()
	profile.BeforeCreate()

	coll := config.DB.Collection("user_profiles")
	if _, err := coll.InsertOne(ctx, profile); err != nil {
		log.Printf("warning: failed to insert demo profile: %v", err)
	}
}
