package usecase

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// InitCode is the creation payload of a deployment together with its fingerprint
type InitCode struct {
	Code []byte
	// Args are the coerced constructor arguments rendered as strings
	Args []string
	// Fingerprint is keccak256(bytecode ‖ abi-encoded constructor args)
	Fingerprint  string
	BytecodeHash string
}

// BuildInitCode coerces args to the constructor's ABI types, appends their
// encoding to the creation bytecode and fingerprints the result
func BuildInitCode(artifact *models.Artifact, args []any) (*InitCode, error) {
	if len(artifact.Bytecode) == 0 {
		return nil, fmt.Errorf("artifact %s has no creation bytecode (abstract contract or interface?)", artifact.Name)
	}

	var inputs abi.Arguments
	if artifact.ABI != nil {
		inputs = artifact.ABI.Constructor.Inputs
	}
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("constructor of %s expects %d arguments, got %d", artifact.Name, len(inputs), len(args))
	}

	coerced := make([]any, len(args))
	rendered := make([]string, len(args))
	for i, input := range inputs {
		v, err := CoerceArg(input.Type, args[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("constructor argument %s (%s): %w", name, input.Type.String(), err)
		}
		coerced[i] = v
		rendered[i] = FormatArg(v)
	}

	packed, err := inputs.Pack(coerced...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor arguments: %w", err)
	}

	code := make([]byte, 0, len(artifact.Bytecode)+len(packed))
	code = append(code, artifact.Bytecode...)
	code = append(code, packed...)

	return &InitCode{
		Code:         code,
		Args:         rendered,
		Fingerprint:  crypto.Keccak256Hash(code).Hex(),
		BytecodeHash: crypto.Keccak256Hash(artifact.Bytecode).Hex(),
	}, nil
}

// CoerceArg converts a loosely typed value (as written in a task file or a
// Go task) into the Go type go-ethereum expects for t
func CoerceArg(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		switch x := v.(type) {
		case common.Address:
			return x, nil
		case models.Account:
			return x.Address, nil
		case string:
			if !common.IsHexAddress(x) {
				return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, x)
			}
			return common.HexToAddress(x), nil
		}

	case abi.BoolTy:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			return strconv.ParseBool(x)
		}

	case abi.StringTy:
		if x, ok := v.(string); ok {
			return x, nil
		}

	case abi.IntTy, abi.UintTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %s for %s", n, t.String())
		}
		limit, magnitude := t.Size, n
		if t.T == abi.IntTy {
			limit--
			if n.Sign() < 0 {
				// -2^(size-1) is the smallest representable value
				magnitude = new(big.Int).Add(n, big.NewInt(1))
			}
		}
		if magnitude.BitLen() > limit {
			return nil, fmt.Errorf("value %s overflows %s", n, t.String())
		}
		goType := t.GetType()
		if goType == bigIntType {
			return n, nil
		}
		if t.T == abi.UintTy {
			return reflect.ValueOf(n.Uint64()).Convert(goType).Interface(), nil
		}
		return reflect.ValueOf(n.Int64()).Convert(goType).Interface(), nil

	case abi.BytesTy:
		return toBytes(v)

	case abi.FixedBytesTy:
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		for i := range b {
			arr.Index(i).Set(reflect.ValueOf(b[i]))
		}
		return arr.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			break
		}
		var out reflect.Value
		if t.T == abi.SliceTy {
			out = reflect.MakeSlice(t.GetType(), rv.Len(), rv.Len())
		} else {
			if rv.Len() != t.Size {
				return nil, fmt.Errorf("expected %d elements, got %d", t.Size, rv.Len())
			}
			out = reflect.New(t.GetType()).Elem()
		}
		for i := 0; i < rv.Len(); i++ {
			elem, err := CoerceArg(*t.Elem, rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(elem))
		}
		return out.Interface(), nil

	default:
		return nil, fmt.Errorf("unsupported constructor argument type %s", t.String())
	}

	return nil, fmt.Errorf("cannot use %T value %v as %s", v, v, t.String())
}

// FormatArg renders a coerced argument for the deployment record
func FormatArg(v any) string {
	switch x := v.(type) {
	case common.Address:
		return x.Hex()
	case *big.Int:
		return x.String()
	case []byte:
		return hexutil.Encode(x)
	case string:
		return x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return hexutil.Encode(b)
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = FormatArg(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return fmt.Sprint(v)
}

// maxExactFloat is the largest magnitude below which every integer is exact in a float64
const maxExactFloat = 1 << 53

func toBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		return new(big.Int).Set(x), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int8:
		return big.NewInt(int64(x)), nil
	case int16:
		return big.NewInt(int64(x)), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%v is not an integer", x)
		}
		if math.Abs(x) > maxExactFloat {
			return nil, fmt.Errorf("%v is too large to be exact as a number; quote large integers", x)
		}
		n, _ := big.NewFloat(x).Int(nil)
		return n, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), "_", "")
		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s, base = s[2:], 16
		}
		n, ok := new(big.Int).SetString(s, base)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", x)
		}
		return n, nil
	}
	return nil, fmt.Errorf("cannot use %T value %v as integer", v, v)
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case common.Hash:
		return x.Bytes(), nil
	case string:
		b, err := hexutil.Decode(x)
		if err != nil {
			return nil, fmt.Errorf("invalid hex bytes %q: %w", x, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("cannot use %T value %v as bytes", v, v)
}
