// 手动导入或导出 Moodle XML 题库，不需要启动 HTTP 服务。
//
// 适用于首次部署时批量导入已有题库，或把已审批题目备份成文件。
//
// 用法:
//
//	go run scripts/moodle_xml.go -import questions.xml -creator 1
//	go run scripts/moodle_xml.go -export approved.xml
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"testgen_backend/internal/config"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/service"
	"testgen_backend/pkg/database"
	"testgen_backend/pkg/logger"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	importFile := flag.String("import", "", "要导入的 Moodle XML 文件")
	creatorID := flag.Uint("creator", 0, "导入题目的创建者 ID")
	exportFile := flag.String("export", "", "导出已审批题目到该文件")
	flag.Parse()

	if (*importFile == "") == (*exportFile == "") {
		log.Fatalf("需要且只能指定 -import 或 -export 之一")
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}
	logger.InitLogger(cfg)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	questions := repository.NewQuestionRepository(db)
	audit := service.NewAuditService(repository.NewAuditRepository(db))
	moodle := service.NewMoodleService(questions, audit)
	ctx := context.Background()

	if *importFile != "" {
		if *creatorID == 0 {
			log.Fatalf("导入时必须指定 -creator")
		}
		f, err := os.Open(*importFile)
		if err != nil {
			log.Fatalf("无法打开 %s: %v", *importFile, err)
		}
		defer f.Close()

		imported, err := moodle.Import(ctx, f, uint(*creatorID))
		if err != nil {
			log.Fatalf("导入失败: %v", err)
		}
		log.Printf("导入完成，共 %d 道题目", len(imported))
		return
	}

	out, err := os.Create(*exportFile)
	if err != nil {
		log.Fatalf("无法创建 %s: %v", *exportFile, err)
	}
	defer out.Close()
	if err := moodle.ExportApproved(ctx, out); err != nil {
		log.Fatalf("导出失败: %v", err)
	}
	log.Printf("已导出到 %s", *exportFile)
}
