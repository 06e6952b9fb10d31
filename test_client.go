package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

func main() {
	// Проверяем health endpoint
	fmt.Println("Проверяем health endpoint...")
	resp, err := http.Get("http://localhost:8001/api/v1/ai/health")
	if err != nil {
		fmt.Printf("Ошибка при обращении к health endpoint: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Ошибка чтения ответа: %v\n", err)
		return
	}

	fmt.Printf("Health check ответ (статус %d):\n%s\n\n", resp.StatusCode, string(body))

	// Координата по умолчанию: Симпанг Лима, Семаранг
	lat, lng := -6.9922, 110.4237
	if len(os.Args) > 2 {
		if v, err := strconv.ParseFloat(os.Args[1], 64); err == nil {
			lat = v
		}
		if v, err := strconv.ParseFloat(os.Args[2], 64); err == nil {
			lng = v
		}
	}

	fmt.Printf("Отправляем координату (%.4f, %.4f) на анализ...\n", lat, lng)
	if err := testAnalyzeSensor(lat, lng); err != nil {
		fmt.Printf("Ошибка при тестировании анализа: %v\n", err)
	}
}

func testAnalyzeSensor(lat, lng float64) error {
	payload, err := json.Marshal(map[string]float64{"lat": lat, "lng": lng})
	if err != nil {
		return fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Post(
		"http://localhost:8001/api/v1/ai/analyze-sensor",
		"application/json",
		bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	fmt.Printf("Ответ анализа (статус %d):\n%s\n", resp.StatusCode, string(body))
	return nil
}
