package accounts

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// Resolver maps roles to accounts using the [accounts.<role>] tables of
// treb.toml. Each table maps a network name, or "default", to either an
// address (read-only account) or a private key (signing account).
type Resolver struct {
	accounts map[string]map[string]string
}

// NewResolver creates a resolver over the accounts of the loaded treb.toml
func NewResolver(cfg *config.RuntimeConfig) *Resolver {
	var accounts map[string]map[string]string
	if cfg.DeployConfig != nil {
		accounts = cfg.DeployConfig.Accounts
	}
	return &Resolver{accounts: accounts}
}

// Resolve returns the account for role on network. The network entry wins
// over the default entry; a missing or empty value is an UnknownRoleError
// and a value that is neither an address nor a key is ErrInvalidConfig.
func (r *Resolver) Resolve(ctx context.Context, role string, network string) (models.Account, error) {
	entries := r.accounts[role]

	value := strings.TrimSpace(entries[network])
	if value == "" {
		value = strings.TrimSpace(entries[config.DefaultAccountKey])
	}
	if value == "" {
		return models.Account{}, &domain.UnknownRoleError{Role: role, Network: network}
	}

	account, err := parseAccount(value)
	if err != nil {
		return models.Account{}, fmt.Errorf("%w: account %q on %q: %w", domain.ErrInvalidConfig, role, network, err)
	}
	account.Role = role
	account.Network = network
	return account, nil
}

// Roles returns every configured role, sorted
func (r *Resolver) Roles() []string {
	roles := lo.Keys(r.accounts)
	sort.Strings(roles)
	return roles
}

func parseAccount(value string) (models.Account, error) {
	hexValue := strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X")

	switch len(hexValue) {
	case 2 * common.AddressLength:
		if !common.IsHexAddress(value) {
			break
		}
		return models.Account{Address: common.HexToAddress(value)}, nil
	case 64:
		key, err := crypto.HexToECDSA(hexValue)
		if err != nil {
			return models.Account{}, fmt.Errorf("invalid private key: %w", err)
		}
		return models.Account{Address: crypto.PubkeyToAddress(key.PublicKey), Key: key}, nil
	}

	// never echo the value, it may be a mangled private key
	return models.Account{}, fmt.Errorf("%w: expected a 20-byte address or a 32-byte private key", domain.ErrInvalidAddress)
}

var _ usecase.AccountResolver = (*Resolver)(nil)
