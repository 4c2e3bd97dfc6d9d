package configuration

import "github.com/adampresley/configinator"

type Config struct {
	AwsEndpointUrl         string `flag:"awsep" env:"AWS_ENDPOINT_URL" default:"http://localhost:4566" description:"AWS endpoint URL"`
	AwsRegion              string `flag:"awsregion" env:"AWS_REGION" default:"us-east-1" description:"AWS region"`
	AwsAccessKeyId         string `flag:"awsaccesskeyid" env:"AWS_ACCESS_KEY_ID" default:"" description:"AWS access key ID"`
	AwsSecretAccessKey     string `flag:"awssecretaccesskey" env:"AWS_SECRET_ACCESS_KEY" default:"" description:"AWS secret access key"`
	AwsBucket              string `flag:"awsbucket" env:"AWS_BUCKET" default:"photostrip" description:"S3 bucket"`
	CameraDir              string `flag:"cameradir" env:"CAMERA_DIR" default:"./data/camera" description:"Folder read by the 'directory' and 'hotfolder' cameras"`
	CameraKind             string `flag:"camera" env:"CAMERA" default:"directory" description:"Camera source. Valid values are 'directory', 'hotfolder', and 'snapshot'"`
	CameraTimeoutSeconds   int    `flag:"cameratimeout" env:"CAMERA_TIMEOUT_SECONDS" default:"30" description:"Seconds to wait for a frame from the camera"`
	CatalogFile            string `flag:"catalog" env:"CATALOG_FILE" default:"" description:"Optional YAML file with extra layouts and themes"`
	CountdownSeconds       int    `flag:"countdown" env:"COUNTDOWN_SECONDS" default:"3" description:"Countdown before each photo"`
	DeviceID               string `flag:"deviceid" env:"DEVICE_ID" default:"" description:"Camera device ID passed to the camera source"`
	DownloadPrefix         string `flag:"dlprefix" env:"DOWNLOAD_PREFIX" default:"photobooth-strip" description:"File name prefix for strip downloads"`
	DSN                    string `flag:"dsn" env:"DSN" default:"file:./data/photostrip.db" description:"Data source name"`
	FacingMode             string `flag:"facing" env:"FACING_MODE" default:"user" description:"Initial facing mode. Valid values are 'user' and 'environment'"`
	Host                   string `flag:"host" env:"HOST" default:"localhost:8080" description:"The address and port to bind the HTTP server to"`
	InterShotPauseMs       int    `flag:"pause" env:"INTER_SHOT_PAUSE_MS" default:"1500" description:"Pause between photos in milliseconds"`
	LogLevel               string `flag:"loglevel" env:"LOG_LEVEL" default:"debug" description:"The log level to use. Valid values are 'debug', 'info', 'warn', and 'error'"`
	MaxThumbnailWorkers    int    `flag:"mtw" env:"MAX_THUMBNAIL_WORKERS" default:"10" description:"Maximum number of concurrent thumbnail workers"`
	MirrorUser             bool   `flag:"mirror" env:"MIRROR_USER" default:"true" description:"Mirror frames from user facing cameras"`
	OperatorToken          string `flag:"operatortoken" env:"OPERATOR_TOKEN" default:"" description:"Token required to delete, rename, or export strips. Empty disables the check"`
	OutputFormat           string `flag:"format" env:"OUTPUT_FORMAT" default:"jpeg" description:"Strip image format. Valid values are 'jpeg' and 'png'"`
	OutputQuality          int    `flag:"quality" env:"OUTPUT_QUALITY" default:"95" description:"JPEG quality of finished strips"`
	RetentionDays          int    `flag:"retention" env:"RETENTION_DAYS" default:"0" description:"Days to keep saved strips. 0 keeps them forever"`
	SnapshotUrlEnvironment string `flag:"snapenv" env:"SNAPSHOT_URL_ENVIRONMENT" default:"" description:"Snapshot URL of the environment facing camera"`
	SnapshotUrlUser        string `flag:"snapuser" env:"SNAPSHOT_URL_USER" default:"" description:"Snapshot URL of the user facing camera"`
	StripsFolder           string `flag:"sf" env:"STRIPS_FOLDER" default:"strips" description:"S3 folder for saved strips"`
	TickIntervalMs         int    `flag:"tick" env:"TICK_INTERVAL_MS" default:"1000" description:"Length of one countdown step in milliseconds"`
}

func LoadConfig() Config {
	config := Config{}
	configinator.Behold(&config)
	return config
}
