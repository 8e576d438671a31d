package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"resume-agent/internal/config"
	"resume-agent/internal/document"
	"resume-agent/internal/llm"
	"resume-agent/internal/logging"
	"resume-agent/internal/repository"
	"resume-agent/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.Debug, cfg.LogFile)
	if !cfg.Debug && cfg.LogFile == "" {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	llmClient := llm.NewAnthropicClient(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, cfg.LLMModel, cfg.MaxTokens, cfg.LLMTimeout, logger)
	sessionSvc := service.NewResumeSessionService(
		repository.NewMemorySessionRepository(0, 0),
		document.FileExtractor{},
		service.NewResumeAgent(llmClient),
		service.NewPhraseDetector(),
		nil,
		logger,
	)

	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	} else {
		fmt.Print("Ruta del CV (.pdf, .docx, .txt): ")
		path = readLine(reader)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("leer archivo: %v", err)
	}

	fmt.Println("Analizando CV...")
	res, err := sessionSvc.Upload(ctx, content, filepath.Base(path))
	if err != nil {
		log.Fatalf("subir CV: %v", err)
	}
	fmt.Printf("Sesion: %s\n\n%s\n\n", res.SessionID, res.InitialAnalysis)

	fmt.Println("---- Modo Chat ----")
	fmt.Println("Comandos: /improve <rol> [@ empresa], /rewrite <tipo>: <texto>, /quit")
	for {
		fmt.Print("Tu > ")
		line := readLine(reader)
		if line == "" {
			continue
		}

		cmd := parseCommand(line)
		switch cmd.kind {
		case cmdQuit:
			fmt.Println("Saliendo...")
			return
		case cmdImprove:
			out, err := sessionSvc.Improve(ctx, res.SessionID, cmd.role, cmd.company)
			printResult(out, err)
		case cmdRewrite:
			out, err := sessionSvc.Rewrite(ctx, cmd.text, cmd.sectionType, "")
			printResult(out, err)
		case cmdInvalid:
			fmt.Println("Comando invalido.")
		default:
			if err := streamChat(ctx, sessionSvc, res.SessionID, cmd.text); err != nil {
				fmt.Printf("\nerror generando respuesta: %v\n", err)
			}
		}
	}
}

func streamChat(ctx context.Context, svc *service.ResumeSessionService, sessionID, message string) error {
	chunks, err := svc.ChatStream(ctx, sessionID, message)
	if err != nil {
		return err
	}
	fmt.Print("Agente > ")
	for chunk := range chunks {
		if chunk.Err != nil {
			return chunk.Err
		}
		fmt.Print(chunk.Text)
	}
	fmt.Println()
	return nil
}

func printResult(out string, err error) {
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("Agente > %s\n", out)
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

type commandKind int

const (
	cmdChat commandKind = iota
	cmdImprove
	cmdRewrite
	cmdQuit
	cmdInvalid
)

type command struct {
	kind        commandKind
	text        string
	role        string
	company     string
	sectionType string
}

// parseCommand interpreta una linea del REPL. Todo lo que no empieza con "/" es chat.
func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{kind: cmdChat, text: line}
	}

	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(name) {
	case "/quit", "/exit":
		return command{kind: cmdQuit}
	case "/improve":
		role, company, _ := strings.Cut(rest, "@")
		role = strings.TrimSpace(role)
		if role == "" {
			return command{kind: cmdInvalid}
		}
		return command{kind: cmdImprove, role: role, company: strings.TrimSpace(company)}
	case "/rewrite":
		sectionType, text, ok := strings.Cut(rest, ":")
		sectionType = strings.TrimSpace(sectionType)
		text = strings.TrimSpace(text)
		if !ok || sectionType == "" || text == "" {
			return command{kind: cmdInvalid}
		}
		return command{kind: cmdRewrite, sectionType: sectionType, text: text}
	default:
		return command{kind: cmdInvalid}
	}
}
