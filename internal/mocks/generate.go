package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ProviderGateway --dir ../usecase --output usecase --outpkg gatewaymock --filename gateway_mock.go
