package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
)

// SessionSubmission mirrors the payload the server consumes
type SessionSubmission struct {
	UserID    string  `json:"user_id"`
	Type      string  `json:"type"`
	LessonID  string  `json:"lesson_id,omitempty"`
	Duration  int64   `json:"duration"`
	WPM       float64 `json:"wpm"`
	Accuracy  float64 `json:"accuracy"`
	Errors    int     `json:"errors"`
	TotalKeys int     `json:"total_keys"`
}

var sessionTypes = []string{"LESSON", "PRACTICE", "TIMED_TEST", "CUSTOM"}

// typistProfile gives each simulated user a stable skill level so repeated
// sessions produce plausible running averages
type typistProfile struct {
	baseWPM      float64
	baseAccuracy float64
}

func makeProfiles(n int) []typistProfile {
	profiles := make([]typistProfile, n)
	for i := range profiles {
		profiles[i] = typistProfile{
			baseWPM:      20 + rand.Float64()*80,
			baseAccuracy: 80 + rand.Float64()*19,
		}
	}
	return profiles
}

func (p typistProfile) session(userID string) SessionSubmission {
	duration := int64(rand.Intn(240) + 60)
	wpm := p.baseWPM + rand.Float64()*10 - 5
	if wpm < 1 {
		wpm = 1
	}
	accuracy := p.baseAccuracy + rand.Float64()*4 - 2
	if accuracy > 100 {
		accuracy = 100
	}
	if accuracy < 0 {
		accuracy = 0
	}

	// Roughly five keystrokes per word
	totalKeys := int(wpm * float64(duration) / 60 * 5)
	errors := int(float64(totalKeys) * (100 - accuracy) / 100)

	return SessionSubmission{
		UserID:    userID,
		Type:      sessionTypes[rand.Intn(len(sessionTypes))],
		Duration:  duration,
		WPM:       wpm,
		Accuracy:  accuracy,
		Errors:    errors,
		TotalKeys: totalKeys,
	}
}

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "typing-sessions", "Kafka topic")
	totalUsers := flag.Int("users", 100, "Number of simulated users")
	sessionsPerSecond := flag.Int("rate", 50, "Sessions per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	userPrefix := flag.String("user-prefix", "user", "User ID prefix")
	flag.Parse()

	brokerList := strings.Split(*brokers, ",")

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  Typing Session Producer")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Brokers:       %s\n", *brokers)
	fmt.Printf("  Topic:         %s\n", *topic)
	fmt.Printf("  Users:         %d\n", *totalUsers)
	fmt.Printf("  Sessions/sec:  %d\n", *sessionsPerSecond)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	// Create producer
	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	defer producer.Close()

	// Handle producer errors and successes
	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	// Send message helper
	sendMessage := func(submission SessionSubmission) {
		data, err := json.Marshal(submission)
		if err != nil {
			log.Printf("Failed to marshal message: %v", err)
			return
		}

		msg := &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(submission.UserID),
			Value: sarama.ByteEncoder(data),
		}

		select {
		case producer.Input() <- msg:
		case <-done:
			return
		}
	}

	profiles := makeProfiles(*totalUsers)

	shutdown := func() {
		close(done)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\nCompleted. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	fmt.Printf("Producing sessions for %d users (%d/sec)\n", *totalUsers, *sessionsPerSecond)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	interval := time.Second / time.Duration(*sessionsPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	var sessionCount int64

	for {
		select {
		case <-sigChan:
			fmt.Println("\n\nShutting down...")
			shutdown()
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				fmt.Println("\n\nDuration reached, shutting down...")
				shutdown()
				return
			}

			idx := rand.Intn(*totalUsers)
			userID := fmt.Sprintf("%s-%d", *userPrefix, idx+1)
			sendMessage(profiles[idx].session(userID))
			atomic.AddInt64(&sessionCount, 1)

		case <-statsTicker.C:
			sessions := atomic.LoadInt64(&sessionCount)
			success := atomic.LoadInt64(&successCount)
			errors := atomic.LoadInt64(&errorCount)
			fmt.Printf("[%s] Sessions: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				sessions,
				success,
				errors,
			)
		}
	}
}
