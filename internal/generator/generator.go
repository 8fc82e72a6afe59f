// Package generator produces seeded synthetic transaction and settlement
// datasets. The data embeds the anomaly scenarios the pipeline is built to
// surface: a provider cluster with no settlements, delayed settlements, fee
// shortfalls, and ghost settlements. The same seed always yields the same
// dataset.
package generator

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/payment-recon/internal/config"
	"github.com/payment-recon/internal/domain/payment"
	"github.com/payment-recon/internal/fees"
)

// clusterProvider is the provider whose mid-window captures deliberately
// never settle.
const clusterProvider = "GlobalSettle"

// cluster bounds, as transaction indexes
const (
	clusterStart = 200
	clusterEnd   = 260
)

type weightedProvider struct {
	name   string
	weight float64
}

type weightedCountry struct {
	name     string
	currency string
	weight   float64
}

type weightedStatus struct {
	status payment.TransactionStatus
	weight float64
}

type weightedMethod struct {
	method payment.Method
	weight float64
}

var providerWeights = []weightedProvider{
	{"PayBridge", 0.25},
	{"LatamPay", 0.25},
	{"GlobalSettle", 0.20},
	{"FastPay", 0.20},
	{"VoucherPro", 0.10},
}

var countryWeights = []weightedCountry{
	{"Brazil", "BRL", 0.40},
	{"Mexico", "MXN", 0.30},
	{"Colombia", "COP", 0.20},
	{"Chile", "CLP", 0.10},
}

var statusWeights = []weightedStatus{
	{payment.StatusCaptured, 0.70},
	{payment.StatusApproved, 0.15},
	{payment.StatusDeclined, 0.10},
	{payment.StatusRefunded, 0.03},
	{payment.StatusChargedback, 0.02},
}

var methodWeights = []weightedMethod{
	{payment.MethodCreditCard, 0.50},
	{payment.MethodDebitCard, 0.30},
	{payment.MethodBankTransfer, 0.15},
	{payment.MethodCashVoucher, 0.05},
}

// Dataset is one generated pair of input files.
type Dataset struct {
	Transactions []payment.Transaction
	Settlements  []payment.Settlement
}

// Generator builds datasets from a seeded random source.
type Generator struct {
	cfg      config.GeneratorConfig
	timing   config.TimingConfig
	feeModel *fees.Model
	rates    map[string]float64
	logger   *slog.Logger
}

// NewGenerator wires a generator. The rates are used inversely, converting
// a USD base amount into each local currency.
func NewGenerator(cfg config.GeneratorConfig, timing config.TimingConfig, feeModel *fees.Model, rates *config.RatesConfig, logger *slog.Logger) *Generator {
	return &Generator{
		cfg:      cfg,
		timing:   timing,
		feeModel: feeModel,
		rates: map[string]float64{
			"BRL": rates.BRLToUSD,
			"MXN": rates.MXNToUSD,
			"COP": rates.COPToUSD,
			"CLP": rates.CLPToUSD,
			"USD": 1,
		},
		logger: logger,
	}
}

// Generate builds a dataset whose window of activity ends at now. Calling
// it twice with the same configuration and now yields identical datasets.
func (g *Generator) Generate(now time.Time) *Dataset {
	rng := rand.New(rand.NewSource(g.cfg.Seed))
	windowStart := now.AddDate(0, 0, -g.cfg.WindowDays)

	transactions, clusterIDs := g.generateTransactions(rng, windowStart)
	settlements := g.generateSettlements(rng, now, transactions, clusterIDs)

	g.logger.Info("dataset generated",
		"seed", g.cfg.Seed,
		"transactions", len(transactions),
		"settlements", len(settlements),
		"cluster_size", len(clusterIDs),
	)
	return &Dataset{Transactions: transactions, Settlements: settlements}
}

// generateTransactions emits the configured number of transactions spread
// uniformly over the window. Transactions indexed 200 to 259 that land on
// the cluster provider are forced to captured in days 7 to 21; their ids
// are returned so settlement generation can skip them.
func (g *Generator) generateTransactions(rng *rand.Rand, windowStart time.Time) ([]payment.Transaction, map[string]struct{}) {
	transactions := make([]payment.Transaction, 0, g.cfg.TransactionCount)
	clusterIDs := make(map[string]struct{})

	for i := 0; i < g.cfg.TransactionCount; i++ {
		timestamp := windowStart.Add(daysDuration(uniform(rng, 0, float64(g.cfg.WindowDays))))
		country := pickCountry(rng)
		amount := g.localAmount(rng, country.currency)
		method := pickMethod(rng)
		provider := pickProvider(rng)
		status := pickStatus(rng)

		id := fmt.Sprintf("TXN_%06d", i+1)
		if i >= clusterStart && i < clusterEnd && provider == clusterProvider {
			status = payment.StatusCaptured
			timestamp = windowStart.Add(daysDuration(uniform(rng, 7, 21)))
			clusterIDs[id] = struct{}{}
		}

		transactions = append(transactions, payment.Transaction{
			ID:         id,
			Timestamp:  timestamp,
			Amount:     amount,
			Currency:   country.currency,
			Status:     status,
			Provider:   provider,
			Method:     method,
			Country:    country.name,
			CustomerID: fmt.Sprintf("CUST_%04d", rng.Intn(9000)+1000),
		})
	}
	return transactions, clusterIDs
}

// generateSettlements settles a configured fraction of the captured
// transactions outside the cluster, injecting timing delays and fee
// shortfalls at their configured rates, then appends ghost settlements
// that reference transactions that do not exist.
func (g *Generator) generateSettlements(rng *rand.Rand, now time.Time, transactions []payment.Transaction, clusterIDs map[string]struct{}) []payment.Settlement {
	settlements := make([]payment.Settlement, 0, len(transactions))
	nextID := 1

	for i := range transactions {
		txn := &transactions[i]
		if txn.Status != payment.StatusCaptured {
			continue
		}
		if _, inCluster := clusterIDs[txn.ID]; inCluster {
			continue
		}
		if rng.Float64() >= g.cfg.SettlementRate {
			continue
		}

		timing := g.methodTiming(txn.Method)
		minDays, maxDays := float64(timing.MinDays), float64(timing.MaxDays)
		var settleDays float64
		if rng.Float64() < g.cfg.DelayedRate {
			settleDays = maxDays + uniform(rng, maxDays*0.5, maxDays)
		} else {
			settleDays = uniform(rng, minDays, maxDays)
		}

		expected := g.feeModel.ExpectedSettlement(txn.Amount, txn.Method)
		var settled decimal.Decimal
		if rng.Float64() < g.cfg.FeeVarianceRate {
			variance := uniform(rng, -0.20, -0.10)
			settled = expected.Mul(decimal.NewFromFloat(1 + variance))
		} else {
			settled = expected.Add(decimal.NewFromFloat(uniform(rng, -0.02, 0.02)))
		}

		settlements = append(settlements, payment.Settlement{
			ID:            fmt.Sprintf("SET_%06d", nextID),
			TransactionID: txn.ID,
			Timestamp:     txn.Timestamp.Add(daysDuration(settleDays)),
			Amount:        settled.Round(2),
			Currency:      txn.Currency,
			Provider:      txn.Provider,
		})
		nextID++
	}

	for i := 0; i < g.cfg.GhostCount; i++ {
		country := pickCountry(rng)
		settlements = append(settlements, payment.Settlement{
			ID:            fmt.Sprintf("SET_%06d", nextID),
			TransactionID: fmt.Sprintf("TXN_999%03d", i+1),
			Timestamp:     now.Add(-daysDuration(uniform(rng, 0, float64(g.cfg.WindowDays)))),
			Amount:        g.localAmount(rng, country.currency),
			Currency:      country.currency,
			Provider:      pickProvider(rng),
		})
		nextID++
	}

	return settlements
}

// localAmount draws a 10 to 500 USD base amount and converts it into the
// local currency at the inverse exchange rate.
func (g *Generator) localAmount(rng *rand.Rand, currency string) decimal.Decimal {
	usd := uniform(rng, 10, 500)
	rate := g.rates[currency]
	if rate <= 0 {
		rate = 1
	}
	return decimal.NewFromFloat(usd / rate).Round(2)
}

func (g *Generator) methodTiming(method payment.Method) config.MethodTiming {
	switch method {
	case payment.MethodCreditCard, payment.MethodDebitCard:
		return g.timing.Card
	case payment.MethodBankTransfer:
		return g.timing.Bank
	case payment.MethodCashVoucher:
		return g.timing.Voucher
	default:
		return g.timing.Default
	}
}

func pickProvider(rng *rand.Rand) string {
	roll := rng.Float64()
	acc := 0.0
	for _, p := range providerWeights {
		acc += p.weight
		if roll < acc {
			return p.name
		}
	}
	return providerWeights[len(providerWeights)-1].name
}

func pickCountry(rng *rand.Rand) weightedCountry {
	roll := rng.Float64()
	acc := 0.0
	for _, c := range countryWeights {
		acc += c.weight
		if roll < acc {
			return c
		}
	}
	return countryWeights[len(countryWeights)-1]
}

func pickStatus(rng *rand.Rand) payment.TransactionStatus {
	roll := rng.Float64()
	acc := 0.0
	for _, s := range statusWeights {
		acc += s.weight
		if roll < acc {
			return s.status
		}
	}
	return statusWeights[len(statusWeights)-1].status
}

func pickMethod(rng *rand.Rand) payment.Method {
	roll := rng.Float64()
	acc := 0.0
	for _, m := range methodWeights {
		acc += m.weight
		if roll < acc {
			return m.method
		}
	}
	return methodWeights[len(methodWeights)-1].method
}

func uniform(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

func daysDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}
