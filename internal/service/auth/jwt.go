package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const memberIdKey = "member_id"

type Claims struct {
	MemberId string `json:"member_id"`
}

func (s service) generateJWT(memberId string) (string, error) {
	claims := jwt.MapClaims{
		memberIdKey: memberId,
		"iat":       s.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

func (s service) parseJWT(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	memberId, ok := claims[memberIdKey].(string)
	if !ok || memberId == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		MemberId: memberId,
	}, nil
}
