package db

//go:generate sqlc generate -f ../../sqlc.yaml
//go:generate mockgen -destination=../mocks/mock_querier.go -package=mocks github.com/cyphera/cyphera-mpc-billing/internal/db Querier
