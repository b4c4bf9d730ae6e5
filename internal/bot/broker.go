package bot

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"classpublisher/internal/domain"
	"classpublisher/internal/infra"
	"classpublisher/internal/providers/vimeo"
	"classpublisher/internal/providers/wordpress"
)

// DefaultInteractionTimeout is how long the operator has to answer a
// prompt before the request expires.
const DefaultInteractionTimeout = 2 * time.Hour

// Sender is the outbound half of the chat channel.
type Sender interface {
	SendMessage(ctx context.Context, text string) error
	SendKeyboard(ctx context.Context, text string, rows [][]InlineButton) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// ConfigProvider resolves the per-day publishing configuration; trainer
// selection needs it to map a slot key to an image id.
type ConfigProvider interface {
	DayConfig(ctx context.Context, day domain.DayNumber) (*domain.DayConfig, error)
}

// BrokerOptions configures the interactive request broker.
type BrokerOptions struct {
	Sender       Sender
	Config       ConfigProvider
	TrainerNames infra.TrainerNames
	Timeout      time.Duration
	Logger       *infra.Logger
}

// Broker turns the shared inbound callback stream into isolated
// request/response exchanges. All replies arrive on one stream; each
// outstanding request owns a correlation id, and a reply resolves a
// request only when both the kind and the id match. At most one request
// per kind is outstanding at any time; a second caller of the same kind
// is turned away immediately with the kind's empty result.
type Broker struct {
	sender  Sender
	config  ConfigProvider
	names   infra.TrainerNames
	timeout time.Duration
	logger  *infra.Logger

	mu      sync.Mutex
	pending map[Kind]*pendingRequest
}

type pendingRequest struct {
	id        string
	createdAt time.Time
	replies   chan string
}

// NewBroker constructs the broker.
func NewBroker(opts BrokerOptions) *Broker {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultInteractionTimeout
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Broker{
		sender:  opts.Sender,
		config:  opts.Config,
		names:   opts.TrainerNames,
		timeout: timeout,
		logger:  logger,
		pending: make(map[Kind]*pendingRequest),
	}
}

// begin registers a fresh outstanding request for the kind. The bool is
// false when one is already outstanding; no prompt or correlation id is
// produced in that case.
func (b *Broker) begin(kind Kind) (*pendingRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending[kind] != nil {
		return nil, false
	}
	p := &pendingRequest{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		replies:   make(chan string, 1),
	}
	b.pending[kind] = p
	return p, true
}

// clear drops the outstanding request, but only if it is still the one
// identified by id; a newer request of the same kind stays untouched.
func (b *Broker) clear(kind Kind, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p := b.pending[kind]; p != nil && p.id == id {
		delete(b.pending, kind)
	}
}

// await suspends the caller until a correlated reply arrives, the timeout
// window elapses, or ctx is cancelled.
func (b *Broker) await(ctx context.Context, kind Kind, p *pendingRequest) (string, error) {
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case payload := <-p.replies:
		return payload, nil
	case <-timer.C:
		b.clear(kind, p.id)
		b.logger.Warn().Str("kind", string(kind)).Msg("broker: interaction timed out")
		return "", domain.ErrTimeout
	case <-ctx.Done():
		b.clear(kind, p.id)
		return "", ctx.Err()
	}
}

// refuse notifies the operator that a same-kind request is already
// pending. The caller then returns the kind's empty result.
func (b *Broker) refuse(ctx context.Context, kind Kind) {
	b.logger.Warn().Str("kind", string(kind)).Msg("broker: request already pending")
	_ = b.sender.SendMessage(ctx, fmt.Sprintf("Ya hay una %s pendiente. Responde primero a esa solicitud.", kind.Label()))
}

func (b *Broker) notifyExpired(ctx context.Context, kind Kind) {
	_ = b.sender.SendMessage(ctx, fmt.Sprintf("La %s expiró sin respuesta.", kind.Label()))
}

// HandleCallback routes one inbound reply event. Replies whose token does
// not carry the current correlation id for its kind are ignored; they can
// never resolve a newer request. Every callback is acknowledged so the
// chat UI stops showing its pending indicator.
func (b *Broker) HandleCallback(ctx context.Context, query *CallbackQuery) {
	if query == nil {
		return
	}
	if err := b.sender.AnswerCallback(ctx, query.ID); err != nil {
		b.logger.Warn().Err(err).Msg("broker: answer callback failed")
	}

	tok, ok := parseToken(query.Data)
	if !ok {
		b.logger.Debug().Str("data", query.Data).Msg("broker: unrecognized callback data")
		return
	}

	b.mu.Lock()
	p := b.pending[tok.Kind]
	if p == nil || p.id != tok.RequestID {
		b.mu.Unlock()
		b.logger.Debug().
			Str("kind", string(tok.Kind)).
			Str("request_id", tok.RequestID).
			Msg("broker: stale or unmatched reply ignored")
		return
	}
	delete(b.pending, tok.Kind)
	b.mu.Unlock()

	select {
	case p.replies <- tok.Payload:
	default:
	}
}

// PendingKinds lists the kinds with an outstanding request, for the ops
// status surface.
func (b *Broker) PendingKinds() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	kinds := make([]string, 0, len(b.pending))
	for kind := range b.pending {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	return kinds
}

// AskVideoSelection prompts the operator to pick one of the given videos.
// Nil means no selection: cancelled, timed out, or turned away because a
// selection is already pending.
func (b *Broker) AskVideoSelection(ctx context.Context, videos []vimeo.Video) (*vimeo.Video, error) {
	if len(videos) == 0 {
		return nil, nil
	}
	p, ok := b.begin(KindVideoSelection)
	if !ok {
		b.refuse(ctx, KindVideoSelection)
		return nil, nil
	}

	rows := make([][]InlineButton, 0, len(videos)+1)
	for i, video := range videos {
		tok := callbackToken{Kind: KindVideoSelection, RequestID: p.id, Payload: strconv.Itoa(i)}
		rows = append(rows, []InlineButton{{Text: video.Name, CallbackData: tok.Encode()}})
	}
	cancel := callbackToken{Kind: KindVideoSelection, RequestID: p.id, Payload: cancelPayload}
	rows = append(rows, []InlineButton{{Text: "❌ Cancelar", CallbackData: cancel.Encode()}})

	if err := b.sender.SendKeyboard(ctx, "Selecciona el video que quieres publicar:", rows); err != nil {
		b.clear(KindVideoSelection, p.id)
		return nil, err
	}

	payload, err := b.await(ctx, KindVideoSelection, p)
	if err == domain.ErrTimeout {
		b.notifyExpired(ctx, KindVideoSelection)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if payload == cancelPayload {
		return nil, nil
	}
	index, convErr := strconv.Atoi(payload)
	if convErr != nil || index < 0 || index >= len(videos) {
		return nil, fmt.Errorf("broker: invalid video selection payload %q", payload)
	}
	return &videos[index], nil
}

// AskPublishConfirmation asks a yes/no question. False means no, cancel,
// timeout, or turned away.
func (b *Broker) AskPublishConfirmation(ctx context.Context, prompt string) (bool, error) {
	p, ok := b.begin(KindPublishConfirm)
	if !ok {
		b.refuse(ctx, KindPublishConfirm)
		return false, nil
	}

	yes := callbackToken{Kind: KindPublishConfirm, RequestID: p.id, Payload: "yes"}
	no := callbackToken{Kind: KindPublishConfirm, RequestID: p.id, Payload: "no"}
	rows := [][]InlineButton{{
		{Text: "Sí", CallbackData: yes.Encode()},
		{Text: "No", CallbackData: no.Encode()},
	}}

	if err := b.sender.SendKeyboard(ctx, prompt, rows); err != nil {
		b.clear(KindPublishConfirm, p.id)
		return false, err
	}

	payload, err := b.await(ctx, KindPublishConfirm, p)
	if err == domain.ErrTimeout {
		b.notifyExpired(ctx, KindPublishConfirm)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return payload == "yes", nil
}

// AskPostSelection prompts the operator to pick one of the given posts.
// Nil means no selection.
func (b *Broker) AskPostSelection(ctx context.Context, posts []wordpress.Post) (*wordpress.Post, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	p, ok := b.begin(KindPostSelection)
	if !ok {
		b.refuse(ctx, KindPostSelection)
		return nil, nil
	}

	rows := make([][]InlineButton, 0, len(posts)+1)
	for i, post := range posts {
		title := post.Title.Rendered
		if title == "" {
			title = "Sin título"
		}
		label := title
		if post.Date != "" {
			label = fmt.Sprintf("%s (%s)", title, post.Date)
		}
		tok := callbackToken{Kind: KindPostSelection, RequestID: p.id, Payload: strconv.Itoa(i)}
		rows = append(rows, []InlineButton{{Text: label, CallbackData: tok.Encode()}})
	}
	cancel := callbackToken{Kind: KindPostSelection, RequestID: p.id, Payload: cancelPayload}
	rows = append(rows, []InlineButton{{Text: "❌ Cancelar", CallbackData: cancel.Encode()}})

	if err := b.sender.SendKeyboard(ctx, "Selecciona el post que quieres eliminar:", rows); err != nil {
		b.clear(KindPostSelection, p.id)
		return nil, err
	}

	payload, err := b.await(ctx, KindPostSelection, p)
	if err == domain.ErrTimeout {
		b.notifyExpired(ctx, KindPostSelection)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if payload == cancelPayload {
		return nil, nil
	}
	index, convErr := strconv.Atoi(payload)
	if convErr != nil || index < 0 || index >= len(posts) {
		return nil, fmt.Errorf("broker: invalid post selection payload %q", payload)
	}
	return &posts[index], nil
}

// AskTrainerImage asks the operator which trainer's image to feature for
// the given day and resolves the selection to a media id through the day
// configuration. An empty string means the selection was cancelled or
// turned away. Unlike the other kinds, an expired window is an error: a
// publish cannot proceed without a featured image decision.
func (b *Broker) AskTrainerImage(ctx context.Context, day domain.DayNumber) (string, error) {
	cfg, err := b.config.DayConfig(ctx, day)
	if err != nil {
		return "", err
	}

	p, ok := b.begin(KindTrainerSelection)
	if !ok {
		b.refuse(ctx, KindTrainerSelection)
		return "", nil
	}

	keys := cfg.Trainers.SlotKeys()
	rows := make([][]InlineButton, 0, len(keys))
	for _, key := range keys {
		tok := callbackToken{Kind: KindTrainerSelection, RequestID: p.id, Payload: key}
		rows = append(rows, []InlineButton{{Text: b.names.Name(key), CallbackData: tok.Encode()}})
	}

	if err := b.sender.SendKeyboard(ctx, "Selecciona el entrenador para usar su imagen:", rows); err != nil {
		b.clear(KindTrainerSelection, p.id)
		return "", err
	}

	payload, err := b.await(ctx, KindTrainerSelection, p)
	if err == domain.ErrTimeout {
		b.notifyExpired(ctx, KindTrainerSelection)
		return "", fmt.Errorf("%w: trainer selection for day %d", domain.ErrTimeout, day)
	}
	if err != nil {
		return "", err
	}
	if payload == cancelPayload {
		return "", nil
	}

	slot, found := cfg.Trainers.Slot(payload)
	if !found {
		return "", fmt.Errorf("broker: unknown trainer slot %q", payload)
	}
	if slot.ImagePrimary == 0 {
		return "", domain.ConfigurationError("no image configured for %s on day %d", b.names.Name(payload), day)
	}
	return strconv.Itoa(slot.ImagePrimary), nil
}
