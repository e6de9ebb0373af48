package main

import (
	"log"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/session"
	"app/internal/usecase"
	auth "app/internal/usecase/auth_usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

// subにユーザーID、sidにカートセッションのキーを入れる。
// middleware.AuthJWTが両方を取り出す。
func (i *jwtIssuer) Issue(userID string, sessionKey string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub": userID,
		"sid": sessionKey,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// リモート確定の失敗通知はサーバーログへ出す
type logNotifier struct{}

func (n *logNotifier) Notify(notice usecase.Notice) {
	log.Printf("cart sync failed: %s: %s", notice.Title, notice.Detail)
}

func main() {
	//環境変数
	if err := godotenv.Load("../.env"); err != nil {
		log.Printf("no .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.MenuCategory{},
		&model.MenuItem{},
		&model.Cart{},
		&model.CartLine{},
		&model.Offer{},
		&model.Order{},
		&model.OrderItem{},
		&model.Address{},
	); err != nil {
		panic(err)
	}

	//ローカルスナップショット（Bolt）
	snapshots, err := infraRepo.NewSnapshotBoltStore(cfg.SnapshotPath)
	if err != nil {
		panic(err)
	}
	defer snapshots.Close()

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	menuRepo := infraRepo.NewMenuItemGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	offerRepo := infraRepo.NewOfferGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	//JWT issuer
	issuer := &jwtIssuer{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: 24 * time.Hour,
	}

	//料金ルール
	rules := usecase.PricingRules{
		TaxRate:               cfg.TaxRate,
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
		StandardDeliveryFee:   cfg.StandardDeliveryFee,
	}

	//認証状態のHubとセッションごとのカート
	hub := session.NewHub()
	cartSvc := usecase.NewCartService(hub, snapshots, cartRepo, menuRepo, offerRepo, &logNotifier{}, time.Now)

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, idGen, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, idGen, clock)
	menuUC := usecase.NewMenuUsecase(menuRepo)
	orderUC := usecase.NewOrderUsecase(txManager, orderRepo, orderItemRepo, rules)
	addressUC := usecase.NewAddressUsecase(addressRepo)

	//Handler生成
	authH := handler.NewAuthHandler(registerUC, loginUC, hub)
	menuH := handler.NewMenuHandler(menuUC)
	cartH := handler.NewCartHandler(cartSvc)
	offerH := handler.NewOfferHandler(cartSvc, rules)
	orderH := handler.NewOrderHandler(orderUC, cartSvc)
	addressH := handler.NewAddressHandler(addressUC)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	if err := server.Start(addr, cfg, authH, menuH, cartH, offerH, orderH, addressH); err != nil {
		//未確定のリモート処理を待ってから落とす
		cartSvc.Wait()
		panic(err)
	}
}
