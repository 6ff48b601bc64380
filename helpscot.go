package helpscot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/bugcenter/helpscot/config"
	"github.com/bugcenter/helpscot/schedule"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/marcsantiago/gocron"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	defaultAnswerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	maxRequestBodyBytes    = 1 << 20
)

// Helpscot represents what defines a helpscot bot (mostly, a name and its plugins)
type Helpscot struct {
	name    string
	config  *viper.Viper
	plugins []*Plugin
	closers []io.Closer

	// Indexes built from the plugins as an optimization when routing requests
	commands     map[string]commandWithPlugin
	hearActions  []actionWithPlugin
	interactions map[string]interactionWithPlugin
	suggestions  map[string]suggestionWithPlugin
	prepareOnce  sync.Once

	selfID string

	logger         *log.Logger
	log            SLogger
	chatDriver     ChatDriver
	userInfoFinder UserInfoFinder
	selfIdentifier SelfIdentifier
	postWebhook    webhookPoster
	signingSecret  string
	answerTimeout  time.Duration
	meter          metric.Meter

	router        *partitionRouter
	schedulerStop chan bool
	answers       sync.WaitGroup

	*instrumenter
}

// Plugin represents a plugin (its name, action definitions and the services injected by helpscot)
type Plugin struct {
	Name string

	Commands         []CommandDefinition
	HearActions      []ActionDefinition
	Interactions     []InteractionDefinition
	Suggestions      []SuggestionDefinition
	ScheduledActions []ScheduledActionDefinition

	// Those are injected on registration unless already set
	Logger         SLogger
	UserInfoFinder UserInfoFinder
	ChatDriver     ChatDriver
}

// CommandDefinition represents a slash command: its name (without the slash), how it's published and described
// along with the function defining its behavior
type CommandDefinition struct {
	// Indicates whether the command should be omitted from the help message
	Hidden bool

	// Name of the slash command without the leading slash (i.e. "tag" for /tag)
	Name string

	// Usage example
	Usage string

	// Help description for the command
	Description string

	// Function to execute when the command is invoked
	Answer Answerer
}

// ActionDefinition represents how a hear action is triggered, published, used and described
// along with defining the function defining its behavior
type ActionDefinition struct {
	// Indicates whether the action should be omitted from the help message
	Hidden bool

	// Matcher that will determine whether or not the action should be triggered
	Match Matcher

	// Usage example
	Usage string

	// Help description for the action
	Description string

	// Function to execute if the Matcher matches
	Answer Answerer
}

// InteractionDefinition represents the handling of an interaction on a block element or a message shortcut
type InteractionDefinition struct {
	// Indicates whether the interaction should be omitted from the help message
	Hidden bool

	// Type is either slack.InteractionTypeBlockActions or slack.InteractionTypeMessageAction
	Type slack.InteractionType

	// ID is the action id of the block element or the callback id of the message shortcut
	ID string

	// Help description for the interaction (only shown for message shortcuts)
	Description string

	// Function to execute when the interaction happens. The answer is delivered to the interaction's response url
	Answer InteractionAnswerer
}

// SuggestionDefinition provides the options of an external select element
type SuggestionDefinition struct {
	// ActionID of the external select element
	ActionID string

	// Suggest returns the options for what the user typed (Interaction.Value). It must return within slack's 3 seconds deadline
	Suggest Suggester
}

// ScheduledActionDefinition represents when a scheduled action is triggered as well
// as what it does and how
type ScheduledActionDefinition struct {
	// Indicates whether the action should be omitted from the help message
	Hidden bool

	// Schedule definition determining when the action runs
	Schedule schedule.Definition

	// Help description for the scheduled action
	Description string

	// Action is the function that is invoked when the schedule activates
	Action ScheduledAction

	// RunOnStart also runs the action once when the scheduler starts instead of waiting for the
	// first run of its schedule
	RunOnStart bool
}

// IncomingMessage holds a message received by helpscot: either a slash command invocation or a channel message
type IncomingMessage struct {
	// Command is the name of the slash command invoked (without the slash). Empty for channel messages
	Command string

	// NormalizedText is the text of the command or message stripped of surrounding spaces
	NormalizedText string

	// ResponseURL is where answers to a slash command are delivered
	ResponseURL string

	// TriggerID of the slash command, used to open modals
	TriggerID string

	slack.Msg
}

// Interaction holds an interaction payload received by helpscot
type Interaction struct {
	*slack.InteractionCallback

	// Action is the block action that triggered the interaction. It's nil for shortcuts and suggestions
	Action *slack.BlockAction
}

// Answerer is what gets executed when a command is invoked or a hear action is triggered
type Answerer func(m *IncomingMessage) *Answer

// Matcher is the function that determines whether or not a hear action should be triggered. Note that a match
// doesn't guarantee that the action should actually respond with anything once invoked
type Matcher func(m *IncomingMessage) bool

// InteractionAnswerer is what gets executed when an interaction happens
type InteractionAnswerer func(i *Interaction) *Answer

// Suggester returns the options of an external select element
type Suggester func(i *Interaction) []*slack.OptionBlockObject

// ScheduledAction is what gets executed when a ScheduledActionDefinition is triggered (by its schedule.Definition)
type ScheduledAction func()

type commandWithPlugin struct {
	CommandDefinition
	plugin string
}

type actionWithPlugin struct {
	ActionDefinition
	plugin string
}

type interactionWithPlugin struct {
	InteractionDefinition
	plugin string
}

type suggestionWithPlugin struct {
	SuggestionDefinition
	plugin string
}

// String returns a friendly description of a CommandDefinition
func (c CommandDefinition) String() string {
	return fmt.Sprintf("`%s` - %s", c.Usage, c.Description)
}

// String returns a friendly description of an ActionDefinition
func (a ActionDefinition) String() string {
	return fmt.Sprintf("`%s` - %s", a.Usage, a.Description)
}

// String returns a friendly description of a ScheduledActionDefinition
func (a ScheduledActionDefinition) String() string {
	return fmt.Sprintf("`%s` - %s", a.Schedule, a.Description)
}

// Option defines an option for a Helpscot
type Option func(*Helpscot)

// OptionLog sets a logger for helpscot
func OptionLog(logger *log.Logger) func(*Helpscot) {
	return func(s *Helpscot) {
		s.logger = logger
	}
}

// OptionChatDriver sets the chat driver used to post and delete messages. Defaults to the slack client
func OptionChatDriver(chatDriver ChatDriver) func(*Helpscot) {
	return func(s *Helpscot) {
		s.chatDriver = chatDriver
	}
}

// OptionUserInfoFinder sets the loader of user info. Defaults to the slack client
func OptionUserInfoFinder(userInfoFinder UserInfoFinder) func(*Helpscot) {
	return func(s *Helpscot) {
		s.userInfoFinder = userInfoFinder
	}
}

// OptionSelfIdentifier sets what identifies the bot on Run. Defaults to the slack client
func OptionSelfIdentifier(selfIdentifier SelfIdentifier) func(*Helpscot) {
	return func(s *Helpscot) {
		s.selfIdentifier = selfIdentifier
	}
}

// OptionWebhookPoster sets the function delivering answers to response urls. Defaults to slack.PostWebhookContext
func OptionWebhookPoster(postWebhook func(ctx context.Context, url string, msg *slack.WebhookMessage) error) func(*Helpscot) {
	return func(s *Helpscot) {
		s.postWebhook = postWebhook
	}
}

// OptionAnswerTimeout sets the deadline of answering a command, interaction or message
func OptionAnswerTimeout(timeout time.Duration) func(*Helpscot) {
	return func(s *Helpscot) {
		s.answerTimeout = timeout
	}
}

// OptionMeter sets the open telemetry meter. Defaults to the global meter provider's
func OptionMeter(meter metric.Meter) func(*Helpscot) {
	return func(s *Helpscot) {
		s.meter = meter
	}
}

// New creates a new helpscot from a name and configuration
func New(name string, v *viper.Viper, options ...Option) (s *Helpscot, err error) {
	s = new(Helpscot)
	s.name = name
	s.config = config.LayerConfigWithDefaults(v)
	s.plugins = make([]*Plugin, 0)
	s.closers = make([]io.Closer, 0)
	s.logger = log.New(os.Stdout, fmt.Sprintf("%s: ", name), log.Lshortfile|log.LstdFlags)
	s.postWebhook = slack.PostWebhookContext
	s.signingSecret = v.GetString(config.SigningSecretKey)
	s.answerTimeout = defaultAnswerTimeout
	s.meter = otel.Meter(meterName)

	for _, opt := range options {
		opt(s)
	}

	debug := s.config.GetBool(config.DebugKey)
	s.log = NewSLogger(s.logger, debug)

	if s.chatDriver == nil || s.userInfoFinder == nil || s.selfIdentifier == nil {
		client := slack.New(s.config.GetString(config.TokenKey), slack.OptionDebug(debug), slack.OptionLog(log.New(os.Stdout, "slack: ", log.Lshortfile|log.LstdFlags)))

		if s.chatDriver == nil {
			s.chatDriver = client
		}

		if s.userInfoFinder == nil {
			s.userInfoFinder = slackUserInfoFinder{client: client}
		}

		if s.selfIdentifier == nil {
			s.selfIdentifier = client
		}
	}

	if s.instrumenter, err = newInstrumenter(name, s.meter); err != nil {
		return nil, errors.Wrap(err, "failed to create instruments")
	}

	if s.chatDriver, err = newChatDriverWithTelemetry(s.chatDriver, name, s.meter); err != nil {
		return nil, errors.Wrap(err, "failed to create instruments")
	}

	cachingFinder, err := NewCachingUserInfoFinder(s.config, s.userInfoFinder, s.log)
	if err != nil {
		return nil, err
	}

	if s.userInfoFinder, err = newUserInfoFinderWithTelemetry(cachingFinder, name, s.meter); err != nil {
		return nil, errors.Wrap(err, "failed to create instruments")
	}

	s.router, err = newPartitionRouter(s.config.GetInt(config.MessageProcessingPartitionCount), s.config.GetInt(config.MessageProcessingBufferedMessageCount), s.log, s.instrumenter)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// RegisterPlugin registers a plugin with the helpscot engine, injecting the logger, user info finder and
// chat driver unless the plugin has its own. This should be invoked prior to calling Handler or Run
func (s *Helpscot) RegisterPlugin(p *Plugin) {
	if p.Logger == nil {
		p.Logger = s.log
	}

	if p.UserInfoFinder == nil {
		p.UserInfoFinder = s.userInfoFinder
	}

	if p.ChatDriver == nil {
		p.ChatDriver = s.chatDriver
	}

	s.plugins = append(s.plugins, p)
}

// prepare registers the help plugin now that all plugins are registered, indexes all
// plugin actions and starts the message workers
func (s *Helpscot) prepare() {
	s.prepareOnce.Do(func() {
		s.RegisterPlugin(&s.newHelpPlugin(VERSION).Plugin)
		s.indexPlugins()
		s.router.start(s.processMessage)
	})
}

// indexPlugins indexes commands, interactions and suggestions by name/id. When two plugins define
// the same one, the first one registered wins
func (s *Helpscot) indexPlugins() {
	s.commands = make(map[string]commandWithPlugin)
	s.hearActions = make([]actionWithPlugin, 0)
	s.interactions = make(map[string]interactionWithPlugin)
	s.suggestions = make(map[string]suggestionWithPlugin)

	for _, p := range s.plugins {
		for _, c := range p.Commands {
			if existing, ok := s.commands[c.Name]; ok {
				s.log.Printf("Ignoring command [/%s] of plugin [%s] already defined by plugin [%s]\n", c.Name, p.Name, existing.plugin)
				continue
			}

			s.commands[c.Name] = commandWithPlugin{CommandDefinition: c, plugin: p.Name}
		}

		for _, a := range p.HearActions {
			s.hearActions = append(s.hearActions, actionWithPlugin{ActionDefinition: a, plugin: p.Name})
		}

		for _, i := range p.Interactions {
			k := interactionKey(i.Type, i.ID)
			if existing, ok := s.interactions[k]; ok {
				s.log.Printf("Ignoring interaction [%s] of plugin [%s] already defined by plugin [%s]\n", k, p.Name, existing.plugin)
				continue
			}

			s.interactions[k] = interactionWithPlugin{InteractionDefinition: i, plugin: p.Name}
		}

		for _, sg := range p.Suggestions {
			if existing, ok := s.suggestions[sg.ActionID]; ok {
				s.log.Printf("Ignoring suggestions [%s] of plugin [%s] already defined by plugin [%s]\n", sg.ActionID, p.Name, existing.plugin)
				continue
			}

			s.suggestions[sg.ActionID] = suggestionWithPlugin{SuggestionDefinition: sg, plugin: p.Name}
		}
	}
}

func interactionKey(t slack.InteractionType, id string) string {
	return fmt.Sprintf("%s/%s", t, id)
}

// Handler returns the http handler receiving slack requests:
//   - POST /slack/commands for slash commands
//   - POST /slack/interactions for block actions, block suggestions and message shortcuts
//   - POST /slack/events for events api messages
//   - GET /healthz
//
// All slack requests must be signed with the signing secret
func (s *Helpscot) Handler() http.Handler {
	s.prepare()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	})

	r.Route("/slack", func(r chi.Router) {
		r.Use(s.verifySignature)

		r.Post("/commands", s.handleCommand)
		r.Post("/interactions", s.handleInteraction)
		r.Post("/events", s.handleEvent)
	})

	return r
}

// verifySignature rejects requests that aren't signed with the signing secret. The body is
// restored for the handlers once verified
func (s *Helpscot) verifySignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
		if err != nil {
			s.log.Printf("Error reading request body on [%s]: %v\n", r.URL.Path, err)
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		sv, err := slack.NewSecretsVerifier(r.Header, s.signingSecret)
		if err == nil {
			sv.Write(body)
			err = sv.Ensure()
		}

		if err != nil {
			s.log.Printf("Rejecting request on [%s] with invalid signature: %v\n", r.URL.Path, err)
			s.requestRejected(r.URL.Path)
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// handleCommand acknowledges a slash command right away and answers it asynchronously via its response url
func (s *Helpscot) handleCommand(w http.ResponseWriter, r *http.Request) {
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		s.requestRejected(commandRequest)
		http.Error(w, "invalid command", http.StatusBadRequest)
		return
	}

	s.requestSeen(commandRequest)
	name := strings.TrimPrefix(cmd.Command, "/")

	c, ok := s.commands[name]
	if !ok {
		s.log.Printf("Received unknown command [%s] from [%s]\n", cmd.Command, cmd.UserID)
		writeJSON(w, newWebhookMessage(&Answer{Text: fmt.Sprintf("I don't know about `%s`, try `/%s` to get a list of things I do", cmd.Command, s.name)}))
		return
	}

	m := &IncomingMessage{Command: name, NormalizedText: strings.TrimSpace(cmd.Text), ResponseURL: cmd.ResponseURL, TriggerID: cmd.TriggerID,
		Msg: slack.Msg{Channel: cmd.ChannelID, User: cmd.UserID, Username: cmd.UserName, Text: cmd.Text}}

	s.log.Debugf("Command [%s] invoked by [%s] with [%s]\n", cmd.Command, cmd.UserID, m.NormalizedText)
	w.WriteHeader(http.StatusOK)

	s.dispatch(c.plugin, func(ctx context.Context) *Answer {
		return c.Answer(m)
	}, func(ctx context.Context, a *Answer) {
		s.respond(ctx, m.ResponseURL, a)
	})
}

// suggestionsResponse is the response to a block suggestion
type suggestionsResponse struct {
	Options []*slack.OptionBlockObject `json:"options"`
}

// handleInteraction answers block suggestions synchronously. Block actions and message shortcuts are
// acknowledged right away and answered asynchronously via their response url
func (s *Helpscot) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var ic slack.InteractionCallback
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &ic); err != nil {
		s.requestRejected(interactionRequest)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	s.requestSeen(interactionRequest)
	s.log.Debugf("Interaction [%s] from [%s] on [%s%s]\n", ic.Type, ic.User.ID, ic.ActionID, ic.CallbackID)

	switch ic.Type {
	case slack.InteractionTypeBlockSuggestion:
		options := make([]*slack.OptionBlockObject, 0)
		if sg, ok := s.suggestions[ic.ActionID]; ok {
			var suggested []*slack.OptionBlockObject
			d := measure(func() {
				suggested = s.suggest(sg, &Interaction{InteractionCallback: &ic})
			})
			s.pluginProcessed(sg.plugin, d, len(suggested) > 0)

			if suggested != nil {
				options = suggested
			}
		}

		writeJSON(w, suggestionsResponse{Options: options})

	case slack.InteractionTypeBlockActions:
		w.WriteHeader(http.StatusOK)

		for _, ba := range ic.ActionCallback.BlockActions {
			if in, ok := s.interactions[interactionKey(slack.InteractionTypeBlockActions, ba.ActionID)]; ok {
				s.answerInteraction(in, &Interaction{InteractionCallback: &ic, Action: ba})
			}
		}

	case slack.InteractionTypeMessageAction:
		w.WriteHeader(http.StatusOK)

		if in, ok := s.interactions[interactionKey(slack.InteractionTypeMessageAction, ic.CallbackID)]; ok {
			s.answerInteraction(in, &Interaction{InteractionCallback: &ic})
		}

	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Helpscot) suggest(sg suggestionWithPlugin, i *Interaction) (options []*slack.OptionBlockObject) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Printf("Recovered from panic in suggestions [%s] of plugin [%s]: %v\n", sg.ActionID, sg.plugin, r)
			options = nil
		}
	}()

	return sg.Suggest(i)
}

func (s *Helpscot) answerInteraction(in interactionWithPlugin, i *Interaction) {
	s.dispatch(in.plugin, func(ctx context.Context) *Answer {
		return in.Answer(i)
	}, func(ctx context.Context, a *Answer) {
		s.respond(ctx, i.ResponseURL, a)
	})
}

// handleEvent answers the url verification challenge and routes message events to hear actions
func (s *Helpscot) handleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		s.requestRejected(eventRequest)
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}

	if ev.Type == slackevents.URLVerification {
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(w, "invalid challenge", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, challenge.Challenge)
		return
	}

	s.requestSeen(eventRequest)
	w.WriteHeader(http.StatusOK)

	if ev.Type != slackevents.CallbackEvent {
		return
	}

	if e, ok := ev.InnerEvent.Data.(*slackevents.MessageEvent); ok {
		s.routeMessageEvent(e)
	}
}

// routeMessageEvent routes new messages from users to the hear action workers. Edits, deletions and
// messages from bots (including us) are ignored
func (s *Helpscot) routeMessageEvent(e *slackevents.MessageEvent) {
	if e.BotID != "" || e.User == "" || (s.selfID != "" && e.User == s.selfID) {
		s.log.Debugf("Ignoring message [%s] from bot or self [%s%s]\n", e.TimeStamp, e.User, e.BotID)
		return
	}

	switch e.SubType {
	case "", "thread_broadcast", "file_share":
	default:
		s.log.Debugf("Ignoring message [%s] of subtype [%s]\n", e.TimeStamp, e.SubType)
		return
	}

	s.router.route(&IncomingMessage{NormalizedText: strings.TrimSpace(e.Text),
		Msg: slack.Msg{Type: "message", Channel: e.Channel, User: e.User, Text: e.Text, Timestamp: e.TimeStamp, ThreadTimestamp: e.ThreadTimeStamp, SubType: e.SubType}})
}

// processMessage runs every matching hear action on a message and sends their answers. Note that more
// than one action can be triggered during the processing of a single message
func (s *Helpscot) processMessage(m *IncomingMessage) {
	for _, action := range s.hearActions {
		a := action
		if !s.matches(a, m) {
			continue
		}

		var answer *Answer
		d := measure(func() {
			answer = s.safeAnswer(a.plugin, func() *Answer { return a.Answer(m) })
		})
		s.pluginProcessed(a.plugin, d, answer != nil)

		if answer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), s.answerTimeout)
			s.sendAnswer(ctx, m, answer)
			cancel()
		}
	}
}

func (s *Helpscot) matches(a actionWithPlugin, m *IncomingMessage) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Printf("Recovered from panic in matcher of plugin [%s]: %v\n", a.plugin, r)
			matched = false
		}
	}()

	return a.Match(m)
}

// sendAnswer posts the answer to a message on its channel, or as an ephemeral message when requested
func (s *Helpscot) sendAnswer(ctx context.Context, m *IncomingMessage, a *Answer) {
	sendOpts := ApplyAnswerOpts(a.Options...)
	options := newMsgOptions(a, m)

	var err error
	if userID, ok := sendOpts[EphemeralAnswerToOpt]; ok {
		_, err = s.chatDriver.PostEphemeralContext(ctx, m.Channel, userID, options...)
	} else {
		_, _, err = s.chatDriver.PostMessageContext(ctx, m.Channel, options...)
	}

	if err != nil {
		s.log.Printf("Unable to send answer to message [%s] in channel [%s]: %v\n", m.Timestamp, m.Channel, err)
		s.coreMetrics.answerDeliveryErrors.Add(ctx, 1, s.attrs())
	}
}

// dispatch runs answer on its own goroutine, bounded by the answer timeout, and delivers the answer, if any
func (s *Helpscot) dispatch(plugin string, answer func(ctx context.Context) *Answer, deliver func(ctx context.Context, a *Answer)) {
	s.answers.Add(1)

	go func() {
		defer s.answers.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.answerTimeout)
		defer cancel()

		var a *Answer
		d := measure(func() {
			a = s.safeAnswer(plugin, func() *Answer { return answer(ctx) })
		})
		s.pluginProcessed(plugin, d, a != nil)

		if a != nil {
			deliver(ctx, a)
		}
	}()
}

// safeAnswer runs answer, recovering from panics so that one plugin can't take the bot down
func (s *Helpscot) safeAnswer(plugin string, answer func() *Answer) (a *Answer) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Printf("Recovered from panic in plugin [%s]: %v\n", plugin, r)
			a = nil
		}
	}()

	return answer()
}

// respond delivers an answer to a response url
func (s *Helpscot) respond(ctx context.Context, responseURL string, a *Answer) {
	if responseURL == "" {
		s.log.Printf("Dropping answer [%s] without a response url\n", a.Text)
		return
	}

	if err := s.postWebhook(ctx, responseURL, newWebhookMessage(a)); err != nil {
		s.log.Printf("Unable to deliver answer to response url: %v\n", err)
		s.coreMetrics.answerDeliveryErrors.Add(ctx, 1, s.attrs())
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// Run identifies the bot, starts the scheduler of scheduled actions and serves slack requests on the
// configured listen address until ctx is done
func (s *Helpscot) Run(ctx context.Context) (err error) {
	s.prepare()

	identity, err := s.selfIdentifier.AuthTestContext(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to identify with slack")
	}

	s.selfID = identity.UserID
	s.log.Printf("Connected as [%s] with id [%s] on team [%s]\n", identity.User, identity.UserID, identity.Team)

	timeLoc, err := config.GetTimeLocation(s.config)
	if err != nil {
		return err
	}

	if err = s.startActionScheduler(timeLoc); err != nil {
		return err
	}

	srv := &http.Server{Addr: s.config.GetString(config.ListenAddressKey), Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	serveErrs := make(chan error, 1)
	go func() {
		s.log.Printf("Listening on [%s]\n", srv.Addr)
		serveErrs <- srv.ListenAndServe()
	}()

	select {
	case err = <-serveErrs:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "failed to serve on [%s]", srv.Addr)
		}

	case <-ctx.Done():
		s.log.Printf("Shutting down: %v\n", ctx.Err())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		if err = srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "failed to shut down http server")
		}
	}

	return nil
}

// startActionScheduler registers the scheduled actions of all plugins with a new scheduler and
// starts it
func (s *Helpscot) startActionScheduler(timeLoc *time.Location) (err error) {
	gocron.ChangeLoc(timeLoc)
	sc := gocron.NewScheduler()
	onStart := make([]func(), 0)

	for _, p := range s.plugins {
		for _, sa := range p.ScheduledActions {
			j, err := schedule.NewJob(sc, sa.Schedule)
			if err != nil {
				return errors.Wrapf(err, "failed to schedule action [%s] of plugin [%s]", sa.Description, p.Name)
			}

			s.log.Debugf("Adding job [%s] of plugin [%s] to scheduler\n", sa.Schedule, p.Name)
			j.Do(s.scheduledAction(p.Name, sa))

			if sa.RunOnStart {
				onStart = append(onStart, s.scheduledAction(p.Name, sa))
			}
		}
	}

	_, t := sc.NextRun()
	s.log.Debugf("Starting scheduler with first job scheduled at [%s]\n", t)

	s.schedulerStop = sc.Start()

	for _, a := range onStart {
		go a()
	}

	return nil
}

// scheduledAction wraps a scheduled action with instrumentation and panic recovery
func (s *Helpscot) scheduledAction(plugin string, sa ScheduledActionDefinition) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Printf("Recovered from panic in scheduled action [%s] of plugin [%s]: %v\n", sa.Description, plugin, r)
			}
		}()

		s.coreMetrics.scheduledActionsTriggered.Add(context.Background(), 1, s.attrs(attribute.String("plugin", plugin)))
		sa.Action()
	}
}

// Close stops the scheduler and the message workers, waits for answers in progress and closes all
// closers registered with plugins
func (s *Helpscot) Close() (err error) {
	if s.schedulerStop != nil {
		close(s.schedulerStop)
		s.schedulerStop = nil
	}

	s.router.stop()
	s.answers.Wait()

	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil {
			s.log.Printf("Error closing [%T]: %v\n", c, cerr)
			err = cerr
		}
	}

	return err
}
