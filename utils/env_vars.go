package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

type EnvVarType interface {
	string | int | bool
}

// GetEnv reads an environment variable and converts it to T, falling back to
// defaultValue when the variable is unset or empty.
func GetEnv[T EnvVarType](envVar string, defaultValue T) T {
	envValue, ok := os.LookupEnv(envVar)
	if !ok || envValue == "" {
		return defaultValue
	}
	return convertEnvValue(envVar, envValue, defaultValue)
}

// GetRequiredEnv reads an environment variable and converts it to T,
// exiting the process when the variable is unset or empty.
func GetRequiredEnv[T EnvVarType](envVar string) T {
	envValue, ok := os.LookupEnv(envVar)
	if !ok || envValue == "" {
		log.Fatalf("%s environment variable is required", envVar)
	}
	var zero T
	return convertEnvValue(envVar, envValue, zero)
}

func convertEnvValue[T EnvVarType](envVar, envValue string, as T) T {
	var out any
	switch any(as).(type) {
	case string:
		out = envValue
	case int:
		intValue, err := strconv.Atoi(envValue)
		if err != nil {
			panic(fmt.Sprintf("Environment variable %s is not valid. '%s' is not an integer", envVar, envValue))
		}
		out = intValue
	case bool:
		boolValue, err := strconv.ParseBool(envValue)
		if err != nil {
			panic(fmt.Sprintf("Environment variable %s is not valid. '%s' is not a boolean", envVar, envValue))
		}
		out = boolValue
	}
	return out.(T)
}
