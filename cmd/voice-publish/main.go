// voice-publish publishes a synthesis job to the durable jobs stream.
// It is the operator-facing counterpart of the upstream producer, useful
// for smoke tests and for replaying dead-lettered jobs from a JSON file.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/autovid/voice-generator/internal/core"
)

// Defaults mirror the service configuration.
const (
	defaultNATSURL = "nats://127.0.0.1:4222"
	defaultSubject = "voice.jobs.generate"

	defaultStyle    = "Standard"
	defaultGender   = "FEMALE"
	defaultLanguage = "vi-VN"
)

// Flag descriptions.
const (
	flagJobFileDesc  = "JSON file containing a complete job to publish"
	flagJobIDDesc    = "Job identifier (defaults to a generated one)"
	flagTextDesc     = "Segment texts, separated by '|'"
	flagStyleDesc    = "Voice style (Standard, Expressive, Professional)"
	flagGenderDesc   = "Voice gender (MALE or FEMALE)"
	flagLanguageDesc = "Language code, e.g. vi-VN"
	flagSubjectDesc  = "Jobs subject to publish to"
)

type appFlags struct {
	jobFile  string
	jobID    string
	text     string
	style    string
	gender   string
	language string
	subject  string
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.jobFile, "job-file", "", flagJobFileDesc)
	flag.StringVar(&flags.jobID, "job-id", "", flagJobIDDesc)
	flag.StringVar(&flags.text, "text", "", flagTextDesc)
	flag.StringVar(&flags.style, "style", defaultStyle, flagStyleDesc)
	flag.StringVar(&flags.gender, "gender", defaultGender, flagGenderDesc)
	flag.StringVar(&flags.language, "language", defaultLanguage, flagLanguageDesc)
	flag.StringVar(&flags.subject, "subject", defaultSubject, flagSubjectDesc)
	flag.Parse()

	return flags
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	// Same convention as the upstream producer: connection settings come
	// from the environment, optionally via a local .env file.
	_ = godotenv.Load()

	flags := parseFlags()

	payload, jobID, err := buildPayload(flags)
	if err != nil {
		return err
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = defaultNATSURL
	}

	natsConnection, err := nats.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", natsURL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = jetstreamContext.Publish(flags.subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	fmt.Printf("Published job %s to %s\n", jobID, flags.subject)

	return nil
}

// buildPayload assembles the job message from a file or from flags.
func buildPayload(flags appFlags) ([]byte, string, error) {
	if flags.jobFile != "" {
		return payloadFromFile(flags.jobFile)
	}

	if flags.text == "" {
		flag.Usage()

		return nil, "", errors.New("either --job-file or --text must be provided")
	}

	jobID := flags.jobID
	if jobID == "" {
		jobID = "job_" + uuid.NewString()
	}

	texts := strings.Split(flags.text, "|")
	segments := make([]core.Segment, 0, len(texts))

	for index, text := range texts {
		segments = append(segments, core.Segment{
			Index: index,
			Text:  strings.TrimSpace(text),
		})
	}

	payload, err := json.Marshal(core.Job{
		JobID: jobID,
		VoiceStyles: core.VoiceStyles{
			Style:    flags.style,
			Gender:   flags.gender,
			Language: flags.language,
		},
		Segments: segments,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal job: %w", err)
	}

	return payload, jobID, nil
}

func payloadFromFile(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read job file: %w", err)
	}

	var parsed core.Job

	err = json.Unmarshal(data, &parsed)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse job file: %w", err)
	}

	validateErr := parsed.Validate()
	if validateErr != nil {
		return nil, "", fmt.Errorf("job file is not publishable: %w", validateErr)
	}

	return data, parsed.JobID, nil
}
