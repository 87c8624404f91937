// Package config loads the project configuration file (dwh.yaml).
//
// The file has three sections mirroring what an ETL run needs:
//
//	cluster:
//	  host: dwhcluster.abc123.us-west-2.redshift.amazonaws.com
//	  port: 5439
//	  database: dev
//	  username: awsuser
//	iam_role:
//	  arn: arn:aws:iam::123456789012:role/dwhRole
//	s3:
//	  log_data: s3://udacity-dend/log_data
//	  log_jsonpath: s3://udacity-dend/log_json_path.json
//	  song_data: s3://udacity-dend/song_data
//
// plus the optional top-level keys dialect, driver, timeout,
// statement_timeout and reset_schema. Any value can be overridden with
// ProjectConfig.Set using a dotted key such as "s3.log_data".
package config
