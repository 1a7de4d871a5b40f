package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	MsgItemAdded = "Item added to cart!"
	MsgCartEmpty = "Your cart is empty!"
)

// 空カートでcheckout
var ErrCartEmpty = errors.New("cart is empty")

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// 画面に出す通知の約束（notify.Notifier）
type Notifier interface {
	Toast(sessionID, msg string)
	Alert(sessionID, msg string)
}

// セッション1つ分のカート。muで操作を1件ずつ直列にする。
type cartSession struct {
	mu       sync.Mutex
	cart     model.Cart
	loaded   bool
	saved    bool // 直近の保存が成功したか
	evicted  bool
	lastSeen time.Time
}

// カートの業務ロジック。カートはセッションごとにここだけが持つ。
type CartUsecase struct {
	catalog  repo.CatalogRepository
	storage  repo.CartStorage
	notifier Notifier
	idGen    IDGenerator
	clock    Clock
	log      *zap.Logger
	metrics  *Metrics

	mu       sync.Mutex
	sessions map[string]*cartSession
}

// DI
func NewCartUsecase(
	catalog repo.CatalogRepository,
	storage repo.CartStorage,
	notifier Notifier,
	idGen IDGenerator,
	clock Clock,
	log *zap.Logger,
	metrics *Metrics,
) *CartUsecase {
	return &CartUsecase{
		catalog:  catalog,
		storage:  storage,
		notifier: notifier,
		idGen:    idGen,
		clock:    clock,
		log:      log,
		metrics:  metrics,
		sessions: make(map[string]*cartSession),
	}
}

type CartItemResponse struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// 描画・APIに渡すスナップショット
type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	TotalItems int64              `json:"total_items"`
	Total      decimal.Decimal    `json:"total"`
}

func (r CartResponse) IsEmpty() bool {
	return len(r.Items) == 0
}

type CheckoutResult struct {
	Reference  string          `json:"reference"`
	TotalItems int64           `json:"total_items"`
	Total      decimal.Decimal `json:"total"`
	Message    string          `json:"message"`
}

func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartResponse, error) {
	var out CartResponse
	err := u.withSession(ctx, sessionID, func(s *cartSession) {
		out = buildCartResponse(s.cart)
	})
	return out, err
}

// 同一商品は数量+1、無ければ追加。カタログに無いidは何もしない。
func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, productID int64) (CartResponse, error) {
	var out CartResponse
	err := u.withSession(ctx, sessionID, func(s *cartSession) {
		p, err := u.catalog.FindProductByID(ctx, productID)
		if err != nil {
			if !errors.Is(err, repo.ErrNotFound) {
				u.log.Warn("catalog lookup failed", zap.Int64("product_id", productID), zap.Error(err))
			}
			out = buildCartResponse(s.cart)
			return
		}

		s.cart.Add(p)
		u.persist(ctx, sessionID, s, "add")
		u.notifier.Toast(sessionID, MsgItemAdded)
		out = buildCartResponse(s.cart)
	})
	return out, err
}

// 数量をdeltaだけ変える。0以下になったら削除。明細が無ければ何もしない。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, sessionID string, productID int64, delta int64) (CartResponse, error) {
	var out CartResponse
	err := u.withSession(ctx, sessionID, func(s *cartSession) {
		if s.cart.Adjust(productID, delta) {
			u.persist(ctx, sessionID, s, "update")
		}
		out = buildCartResponse(s.cart)
	})
	return out, err
}

func (u *CartUsecase) RemoveFromCart(ctx context.Context, sessionID string, productID int64) (CartResponse, error) {
	var out CartResponse
	err := u.withSession(ctx, sessionID, func(s *cartSession) {
		if s.cart.Remove(productID) {
			u.persist(ctx, sessionID, s, "remove")
		}
		out = buildCartResponse(s.cart)
	})
	return out, err
}

// バッジ用
func (u *CartUsecase) TotalItems(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := u.withSession(ctx, sessionID, func(s *cartSession) {
		n = s.cart.TotalItems()
	})
	return n, err
}

func (u *CartUsecase) TotalPrice(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	total := decimal.Zero
	err := u.withSession(ctx, sessionID, func(s *cartSession) {
		total = s.cart.TotalPrice()
	})
	return total, err
}

// 合計を確定してカートを空にする（決済はしない）。
// 空ならErrCartEmptyで何もしない。
func (u *CartUsecase) Checkout(ctx context.Context, sessionID string) (CheckoutResult, error) {
	var out CheckoutResult
	var empty bool
	err := u.withSession(ctx, sessionID, func(s *cartSession) {
		if s.cart.IsEmpty() {
			empty = true
			u.metrics.checkouts.WithLabelValues("empty").Inc()
			u.notifier.Alert(sessionID, MsgCartEmpty)
			return
		}

		total := s.cart.TotalPrice()
		out = CheckoutResult{
			Reference:  u.idGen.NewID(),
			TotalItems: s.cart.TotalItems(),
			Total:      total,
			Message:    CheckoutMessage(total),
		}
		u.notifier.Alert(sessionID, out.Message)

		s.cart.Clear()
		u.persist(ctx, sessionID, s, "checkout")
		u.metrics.checkouts.WithLabelValues("completed").Inc()
		u.log.Info("checkout completed",
			zap.String("session", sessionID),
			zap.String("reference", out.Reference),
			zap.Int64("items", out.TotalItems),
			zap.String("total", total.StringFixed(2)))
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	if empty {
		return CheckoutResult{}, ErrCartEmpty
	}
	return out, nil
}

func CheckoutMessage(total decimal.Decimal) string {
	return fmt.Sprintf("Thank you for your order!\n\nTotal: $%s\n\nYour order will be processed shortly.", total.StringFixed(2))
}

// 失敗してもメモリ上のカートはそのまま（次の操作でまた保存を試す）
func (u *CartUsecase) persist(ctx context.Context, sessionID string, s *cartSession, op string) {
	u.metrics.mutations.WithLabelValues(op).Inc()
	if err := u.storage.Save(ctx, sessionID, s.cart.Clone()); err != nil {
		s.saved = false
		u.metrics.storageFailures.WithLabelValues(op).Inc()
		return
	}
	s.saved = true
}

// セッションのカートを取り出し、ロックした状態でfnを呼ぶ。
// 初回は保存先から読み込む。
func (u *CartUsecase) withSession(ctx context.Context, sessionID string, fn func(s *cartSession)) error {
	if sessionID == "" {
		return NewHTTPError(http.StatusBadRequest, "missing session")
	}

	for {
		s := u.session(sessionID)
		s.mu.Lock()
		if s.evicted {
			// janitorに外された直後。取り直す。
			s.mu.Unlock()
			continue
		}
		if !s.loaded {
			s.cart = u.storage.Load(ctx, sessionID)
			s.loaded = true
			s.saved = true
		}
		s.lastSeen = u.clock.Now()
		fn(s)
		s.mu.Unlock()
		return nil
	}
}

func (u *CartUsecase) session(sessionID string) *cartSession {
	u.mu.Lock()
	defer u.mu.Unlock()

	s, ok := u.sessions[sessionID]
	if !ok {
		s = &cartSession{}
		u.sessions[sessionID] = s
		u.metrics.sessions.Set(float64(len(u.sessions)))
	}
	return s
}

// idleTTLより使われていないセッションをメモリから外す。
// 保存に失敗しているセッション（メモリにしか無い）は残す。
func (u *CartUsecase) EvictIdle(idleTTL time.Duration) int {
	now := u.clock.Now()

	u.mu.Lock()
	defer u.mu.Unlock()

	n := 0
	for id, s := range u.sessions {
		if !s.mu.TryLock() {
			continue
		}
		if s.saved && now.Sub(s.lastSeen) >= idleTTL {
			s.evicted = true
			delete(u.sessions, id)
			n++
		}
		s.mu.Unlock()
	}
	u.metrics.sessions.Set(float64(len(u.sessions)))
	return n
}

// ctxが終わるまでintervalごとにEvictIdleを回す
func (u *CartUsecase) RunJanitor(ctx context.Context, interval, idleTTL time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := u.EvictIdle(idleTTL); n > 0 {
				u.log.Debug("evicted idle cart sessions", zap.Int("count", n))
			}
		}
	}
}

func buildCartResponse(cart model.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, CartItemResponse{
			ID:       l.ID,
			Name:     l.Name,
			Price:    l.Price,
			Quantity: l.Quantity,
			Subtotal: l.Subtotal().Round(2),
		})
	}
	return CartResponse{
		Items:      items,
		TotalItems: cart.TotalItems(),
		Total:      cart.TotalPrice(),
	}
}
