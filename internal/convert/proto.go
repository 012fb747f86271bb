// Package convert maps domain values to and from the structpb wire messages.
package convert

import (
	"errors"
	"fmt"

	model "github.com/and161185/goph-auth/internal/model"
	"google.golang.org/protobuf/types/known/structpb"
)

// Wire field names.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldName         = "name"
	FieldAccessToken  = "access_token"
	FieldRefreshToken = "refresh_token"
	FieldUser         = "user"
	FieldID           = "id"
	FieldFound        = "found"
)

// ErrBadField is returned when a field is present with the wrong kind.
var ErrBadField = errors.New("bad field")

// --- helpers ---

func str(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	case *structpb.Value_NullValue:
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s must be a string", ErrBadField, key)
	}
}

func boolean(s *structpb.Struct, key string) (bool, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return false, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return k.BoolValue, nil
	case *structpb.Value_NullValue:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s must be a bool", ErrBadField, key)
	}
}

func strs(s *structpb.Struct, keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, k := range keys {
		v, err := str(s, k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func fields(kv ...string) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		s.Fields[kv[i]] = structpb.NewStringValue(kv[i+1])
	}
	return s
}

// --- auth.v1 (client -> server) ---

// ToProtoRegisterRequest encodes a register command. An empty name is omitted.
func ToProtoRegisterRequest(cmd model.RegisterCommand) *structpb.Struct {
	s := fields(FieldEmail, cmd.Email, FieldPassword, cmd.Password)
	if cmd.Name != "" {
		s.Fields[FieldName] = structpb.NewStringValue(cmd.Name)
	}
	return s
}

// FromProtoRegisterRequest decodes a register command.
func FromProtoRegisterRequest(in *structpb.Struct) (model.RegisterCommand, error) {
	v, err := strs(in, FieldEmail, FieldPassword, FieldName)
	if err != nil {
		return model.RegisterCommand{}, err
	}
	return model.RegisterCommand{Email: v[0], Password: v[1], Name: v[2]}, nil
}

// ToProtoLoginRequest encodes login credentials.
func ToProtoLoginRequest(email, password string) *structpb.Struct {
	return fields(FieldEmail, email, FieldPassword, password)
}

// FromProtoLoginRequest decodes a login command; remote is the caller address.
func FromProtoLoginRequest(in *structpb.Struct, remote string) (model.LoginCommand, error) {
	v, err := strs(in, FieldEmail, FieldPassword)
	if err != nil {
		return model.LoginCommand{}, err
	}
	return model.LoginCommand{Email: v[0], Password: v[1], RemoteAddr: remote}, nil
}

// ToProtoRefreshRequest encodes a refresh token.
func ToProtoRefreshRequest(token string) *structpb.Struct {
	return fields(FieldRefreshToken, token)
}

// FromProtoRefreshRequest decodes a refresh token.
func FromProtoRefreshRequest(in *structpb.Struct) (string, error) {
	return str(in, FieldRefreshToken)
}

// --- auth.v1 (server -> client) ---

// ToProtoTokens encodes a token pair.
func ToProtoTokens(t model.Tokens) *structpb.Struct {
	return fields(FieldAccessToken, t.AccessToken, FieldRefreshToken, t.RefreshToken)
}

// FromProtoTokens decodes a token pair.
func FromProtoTokens(in *structpb.Struct) (model.Tokens, error) {
	v, err := strs(in, FieldAccessToken, FieldRefreshToken)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: v[0], RefreshToken: v[1]}, nil
}

// ToProtoAuthResult encodes tokens plus the nested user object.
func ToProtoAuthResult(r model.AuthResult) *structpb.Struct {
	s := ToProtoTokens(r.Tokens)
	s.Fields[FieldUser] = structpb.NewStructValue(ToProtoIdentity(r.User))
	return s
}

// FromProtoAuthResult decodes tokens plus the nested user object.
func FromProtoAuthResult(in *structpb.Struct) (model.AuthResult, error) {
	t, err := FromProtoTokens(in)
	if err != nil {
		return model.AuthResult{}, err
	}
	var u model.Identity
	if v, ok := in.GetFields()[FieldUser]; ok {
		us := v.GetStructValue()
		if us == nil {
			return model.AuthResult{}, fmt.Errorf("%w: %s must be an object", ErrBadField, FieldUser)
		}
		if u, err = FromProtoIdentity(us); err != nil {
			return model.AuthResult{}, fmt.Errorf("%s: %w", FieldUser, err)
		}
	}
	return model.AuthResult{Tokens: t, User: u}, nil
}

// --- user.v1 ---

// ToProtoIdentity encodes an identity.
func ToProtoIdentity(id model.Identity) *structpb.Struct {
	return fields(FieldID, id.ID, FieldEmail, id.Email, FieldName, id.Name)
}

// FromProtoIdentity decodes an identity.
func FromProtoIdentity(in *structpb.Struct) (model.Identity, error) {
	v, err := strs(in, FieldID, FieldEmail, FieldName)
	if err != nil {
		return model.Identity{}, err
	}
	return model.Identity{ID: v[0], Email: v[1], Name: v[2]}, nil
}

// ToProtoEmailRequest encodes a GetUserByEmail request.
func ToProtoEmailRequest(email string) *structpb.Struct {
	return fields(FieldEmail, email)
}

// FromProtoEmailRequest decodes a GetUserByEmail request.
func FromProtoEmailRequest(in *structpb.Struct) (string, error) {
	return str(in, FieldEmail)
}

// ToProtoCreateUserRequest encodes a CreateUser request.
func ToProtoCreateUserRequest(email, name string) *structpb.Struct {
	return fields(FieldEmail, email, FieldName, name)
}

// FromProtoCreateUserRequest decodes a CreateUser request.
func FromProtoCreateUserRequest(in *structpb.Struct) (email, name string, err error) {
	v, err := strs(in, FieldEmail, FieldName)
	if err != nil {
		return "", "", err
	}
	return v[0], v[1], nil
}

// ToProtoLookup encodes a lookup result. Identity fields are set only when found.
func ToProtoLookup(l model.Lookup) *structpb.Struct {
	if !l.Found {
		return &structpb.Struct{Fields: map[string]*structpb.Value{FieldFound: structpb.NewBoolValue(false)}}
	}
	s := ToProtoIdentity(l.Identity)
	s.Fields[FieldFound] = structpb.NewBoolValue(true)
	return s
}

// FromProtoLookup decodes a lookup result.
func FromProtoLookup(in *structpb.Struct) (model.Lookup, error) {
	found, err := boolean(in, FieldFound)
	if err != nil {
		return model.Lookup{}, err
	}
	if !found {
		return model.Lookup{}, nil
	}
	id, err := FromProtoIdentity(in)
	if err != nil {
		return model.Lookup{}, err
	}
	return model.Lookup{Found: true, Identity: id}, nil
}
