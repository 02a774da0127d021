package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func main() {
	conn, err := grpc.Dial("localhost:9090", //nolint:staticcheck // Will be supported throughout 1.x
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("Failed to close connection: %v", err)
		}
	}()

	client := healthpb.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Тест 1: сам процесс
	fmt.Println("=== Test 1: process health ===")
	check(ctx, client, "")

	// Тест 2: удалённый классификатор
	fmt.Println("\n=== Test 2: inference readiness ===")
	check(ctx, client, "inference")

	// Тест 3: неизвестный сервис
	fmt.Println("\n=== Test 3: unknown service ===")
	check(ctx, client, "billing")
}

func check(ctx context.Context, client healthpb.HealthClient, service string) {
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		if st, ok := status.FromError(err); ok {
			log.Printf("gRPC error: %s (code: %s)", st.Message(), st.Code())
		} else {
			log.Printf("Error: %v", err)
		}
		return
	}

	fmt.Printf("service %q: %s\n", service, resp.Status)
}
