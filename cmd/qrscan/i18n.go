// Package main provides localization for the qrscan CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Scanning":      "スキャン",
		"Camera":        "カメラ",
		"Output":        "出力先",
		"Debug":         "デバッグ",
		"Logging":       "ログ",
		"Telemetry":     "テレメトリ",

		// Root command
		"Scan barcodes from a camera preview":                                                            "カメラプレビューからバーコードを読み取る",
		"qrscan paces camera preview frames into a barcode recognizer and prints every decoded payload.": "qrscanはカメラプレビューのフレームを間引きながら認識器に渡し、読み取った内容を出力します。",

		// Scan command
		"Scan a camera preview for barcodes":                                                                     "カメラプレビューからバーコードをスキャン",
		"Open the rear camera, feed its preview to the recognizer and print decoded payloads until interrupted.": "背面カメラを開いてプレビューを認識器に渡し、中断されるまで読み取った内容を出力します。",

		// Version command
		"Show version information": "バージョン情報を表示",
		"qrscan version %s":        "qrscan バージョン %s",

		// Configuration
		"YAML configuration file":                       "YAML設定ファイル",
		"Pacing preset (responsive, balanced, battery)": "ペースのプリセット (responsive, balanced, battery)",

		// Scanning
		"Minimum milliseconds between recognized frames (0 = no limit)": "認識するフレームの最小間隔ミリ秒 (0 = 制限なし)",
		"Desired preview width in display coordinates":                  "表示座標での希望プレビュー幅",
		"Desired preview height in display coordinates":                 "表示座標での希望プレビュー高さ",
		"Barcode format to look for (repeatable)":                       "読み取るバーコード形式 (複数指定可)",
		"Spend more time per frame to find difficult codes":             "読み取りにくいコードのためにフレームごとの処理時間を増やす",
		"Stop after this long (0 = until interrupted)":                  "この時間が経過したら停止 (0 = 中断まで)",

		// Camera
		"Frame source (dir, webcam)":             "フレームの入力元 (dir, webcam)",
		"Directory of images to replay":          "再生する画像のディレクトリ",
		"Replay rate in frames per second":       "再生レート (フレーム毎秒)",
		"Replay the directory forever":           "ディレクトリを繰り返し再生",
		"Webcam device index":                    "Webカメラのデバイス番号",
		"Reported camera facing (back, front)":   "カメラの向き (back, front)",
		"Reported sensor orientation in degrees": "センサーの取り付け角度 (度)",
		"Display rotation in degrees":            "画面の回転角度 (度)",

		// Output
		"Output execution summary to file (Markdown format)": "実行サマリーをファイルに出力 (Markdown形式)",

		// Debug
		"Save recognized frames for inspection": "認識したフレームを確認用に保存",
		"Directory for debug output":            "デバッグ出力先ディレクトリ",

		// Logging
		"Log level (debug, info, warn, error)": "ログレベル (debug, info, warn, error)",
		"Suppress all log output":              "ログ出力をすべて抑制",

		// Telemetry
		"Export metrics over OTLP":    "OTLPでメトリクスを送信",
		"OTLP gRPC collector address": "OTLP gRPCコレクターのアドレス",

		// Summary
		"Scan Summary":         "スキャンサマリー",
		"Generated":            "生成日時",
		"Results":              "結果",
		"Decoded Payloads":     "読み取り結果",
		"Settings":             "設定",
		"Item":                 "項目",
		"Value":                "値",
		"Scan Duration":        "スキャン時間",
		"Stopped By":           "停止理由",
		"Frames Received":      "受信フレーム数",
		"Frames Admitted":      "認識フレーム数",
		"Frames Throttled":     "間引きフレーム数",
		"Frames Replaced":      "置き換えフレーム数",
		"Detections":           "認識回数",
		"Detection Failures":   "認識失敗回数",
		"Frames Dropped":       "破棄フレーム数",
		"Payloads Decoded":     "読み取り件数",
		"Payload":              "内容",
		"Count":                "回数",
		"First Seen":           "初回検出",
		"No payloads decoded.": "読み取れたコードはありません。",
		"Preset":               "プリセット",
		"Min Interval":         "最小間隔",
		"None":                 "なし",
		"Target Size":          "目標サイズ",
		"Formats":              "形式",
		"Try Harder":           "精密モード",
		"Yes":                  "はい",
		"No":                   "いいえ",
		"Source":               "入力元",
		"Session ID":           "セッションID",
		"Preview Size":         "プレビューサイズ",
		"Display Size":         "表示サイズ",
		"Orientation":          "向き",
		"Focus Mode":           "フォーカスモード",
		"Off":                  "オフ",
		"Generated by":         "生成",

		// Stop reasons
		"cancelled": "中断",
		"duration":  "時間経過",
		"exhausted": "入力終了",
	})
}
