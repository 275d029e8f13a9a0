package config

import "os"

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	MongoURI                string
	LocalCacheConnStr       string
	JWTSecret               string
	CameraSnapshotURL       string
	GeocoderBaseURL         string
	RouterBaseURL           string
	DeviceLat               string
	DeviceLng               string
	R2AccountID             string
	R2AccessKeyID           string
	R2SecretAccessKey       string
	R2BucketName            string
	R2PublicURL             string
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		MongoURI:                getEnv("MONGO_URI", ""),
		LocalCacheConnStr:       getEnv("LOCAL_CACHE_CONN_STR", ""),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		CameraSnapshotURL:       getEnv("CAMERA_SNAPSHOT_URL", "http://localhost:8081/snapshot"),
		GeocoderBaseURL:         getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		RouterBaseURL:           getEnv("ROUTER_BASE_URL", "https://router.project-osrm.org"),
		DeviceLat:               getEnv("DEVICE_LAT", ""),
		DeviceLng:               getEnv("DEVICE_LNG", ""),
		R2AccountID:             getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:           getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey:       getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:            getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:             getEnv("R2_PUBLIC_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
